package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// DecodeMP3 将 MP3 数据解码为单声道 float32 样本，返回样本和采样率。
// go-mp3 总是输出立体声 16-bit LE PCM，这里取左右声道平均。
func DecodeMP3(ctx context.Context, data []byte) ([]float32, int, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("MP3 解码失败: %w", err)
	}

	var pcm bytes.Buffer
	buf := make([]byte, 8192)
	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		n, err := decoder.Read(buf)
		pcm.Write(buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("读取 PCM 数据失败: %w", err)
		}
	}

	return StereoBytesToMono(pcm.Bytes()), decoder.SampleRate(), nil
}
