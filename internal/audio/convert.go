package audio

import (
	"encoding/binary"
	"math"
)

// clamp 将样本钳位到 [-1.0, 1.0]。
func clamp(s float32) float32 {
	if s > 1.0 {
		return 1.0
	}
	if s < -1.0 {
		return -1.0
	}
	return s
}

// Float32ToInt16 将 [-1.0, 1.0] 范围的 float32 样本转换为 PCM int16，超出范围的样本会被钳位。
func Float32ToInt16(in []float32) []int16 {
	out := make([]int16, len(in))
	for i, s := range in {
		out[i] = int16(clamp(s) * math.MaxInt16)
	}
	return out
}

// Float32ToInt 与 Float32ToInt16 相同，但输出 go-audio 使用的 []int。
func Float32ToInt(in []float32) []int {
	out := make([]int, len(in))
	for i, s := range in {
		out[i] = int(clamp(s) * math.MaxInt16)
	}
	return out
}

// IntToFloat32 将 bitDepth 位深的整数样本归一化为 float32。
func IntToFloat32(in []int, bitDepth int) []float32 {
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float32(int(1)<<(bitDepth-1) - 1)
	out := make([]float32, len(in))
	for i, s := range in {
		out[i] = float32(s) / scale
	}
	return out
}

// BytesToFloat32 将 signed 16-bit LE 单声道 PCM 字节转换为 float32，奇数尾字节被丢弃。
func BytesToFloat32(b []byte) []float32 {
	n := len(b) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(b[2*i:]))
		out[i] = float32(s) / math.MaxInt16
	}
	return out
}

// Float32ToBytes 将 float32 样本转换为 signed 16-bit LE PCM 字节。
func Float32ToBytes(in []float32) []byte {
	out := make([]byte, len(in)*2)
	for i, s := range Float32ToInt16(in) {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

// StereoBytesToMono 将立体声 signed 16-bit LE PCM 左右声道取平均，得到单声道 float32。
// 不完整的尾部帧会被截掉。
func StereoBytesToMono(pcm []byte) []float32 {
	const bytesPerFrame = 4
	numFrames := len(pcm) / bytesPerFrame
	out := make([]float32, numFrames)
	for i := 0; i < numFrames; i++ {
		offset := i * bytesPerFrame
		left := int16(binary.LittleEndian.Uint16(pcm[offset:]))
		right := int16(binary.LittleEndian.Uint16(pcm[offset+2:]))
		out[i] = (float32(left) + float32(right)) / 2.0 / 32768.0
	}
	return out
}
