package bench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/iabetor/ttsbench/internal/audio"
	"github.com/iabetor/ttsbench/internal/device"
	"github.com/iabetor/ttsbench/internal/logger"
	"github.com/iabetor/ttsbench/internal/memory"
	"github.com/iabetor/ttsbench/internal/textsplit"
	"github.com/iabetor/ttsbench/internal/tts"
)

// Player 回放写出的音频（可选）。
type Player interface {
	Play(ctx context.Context, samples []float32, sampleRate int) error
}

// Options 是 Harness 的运行参数。
type Options struct {
	OutputDir      string
	Prefer         device.Device // auto 探测，cpu 跳过探测
	MemoryInterval time.Duration // <= 0 只在调用前后采样
}

// Harness 按顺序执行基准场景：选择设备、合成、测量、写文件。
// 引擎由 Harness 持有，Close 时释放。
type Harness struct {
	engine    tts.Engine
	prober    device.Prober
	mem       memory.Reader
	player    Player
	opts      Options
	scenarios []Scenario

	probed   bool
	gpuOK    bool
	selected device.Device

	loaded   map[loadKey]bool
	loads    []Load
	produced []string
}

type loadKey struct {
	dev   device.Device
	voice tts.Voice
}

// Load 是一次模型加载的耗时和内存，不计入合成测量。
type Load struct {
	Voice  tts.Voice     `json:"voice"`
	Device device.Device `json:"device"`
	Sample Sample        `json:"sample"`
}

// New 创建 Harness。prober 和 mem 可以为 nil，分别表示不探测 GPU、不采样内存。
func New(engine tts.Engine, prober device.Prober, mem memory.Reader, scenarios []Scenario, opts Options) *Harness {
	if opts.OutputDir == "" {
		opts.OutputDir = "output"
	}
	if opts.Prefer == "" {
		opts.Prefer = device.Auto
	}
	return &Harness{
		engine:    engine,
		prober:    prober,
		mem:       mem,
		opts:      opts,
		scenarios: scenarios,
		loaded:    make(map[loadKey]bool),
	}
}

// SetPlayer 设置回放器，nil 表示不回放。
func (h *Harness) SetPlayer(p Player) { h.player = p }

// Scenarios 返回配置的场景。
func (h *Harness) Scenarios() []Scenario { return h.scenarios }

// SelectDevice 返回本次运行使用的默认设备，只探测一次。
// 探测失败或不可用时返回 cpu，不会返回错误。
func (h *Harness) SelectDevice() device.Device {
	if h.probed {
		return h.selected
	}
	h.probed = true
	h.selected = device.CPU

	if h.opts.Prefer == device.CPU {
		logger.Infof("[device] 配置为 cpu，跳过 GPU 探测")
		return h.selected
	}

	ok, err := h.probe()
	switch {
	case err != nil:
		logger.Warnf("[device] GPU 探测失败，使用 cpu: %v", err)
	case !ok:
		if h.opts.Prefer == device.GPU {
			logger.Warnf("[device] %v: 未检测到可用的 GPU，使用 cpu", tts.ErrDeviceUnavailable)
		} else {
			logger.Infof("[device] 未检测到可用的 GPU，使用 cpu")
		}
	default:
		h.gpuOK = true
		h.selected = device.GPU
		logger.Infof("[device] 检测到可用的 GPU (provider=%s)", device.Provider(device.GPU))
	}
	return h.selected
}

// probe 调用 Prober，把 panic 当作探测失败。
func (h *Harness) probe() (ok bool, err error) {
	if h.prober == nil {
		return false, nil
	}
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("探测异常: %v", r)
		}
	}()
	return h.prober.Probe()
}

// resolve 把场景请求的设备换成实际可用的设备。
func (h *Harness) resolve(requested device.Device) device.Device {
	selected := h.SelectDevice()
	switch requested {
	case device.Auto:
		return selected
	case device.GPU:
		if !h.gpuOK {
			logger.Warnf("[bench] %v: 请求 gpu，回退到 cpu", tts.ErrDeviceUnavailable)
			return device.CPU
		}
		return device.GPU
	default:
		return device.CPU
	}
}

// prepare 在计时前加载模型。GPU 上加载失败视为设备不可用，回退到 cpu，
// 之后的场景不再尝试 GPU。
func (h *Harness) prepare(dev device.Device, voice tts.Voice) (device.Device, error) {
	p, ok := h.engine.(tts.Preparer)
	if !ok {
		return dev, nil
	}
	err := h.load(p, dev, voice)
	if err == nil || dev != device.GPU {
		return dev, err
	}

	logger.Warnf("[bench] %s 在 gpu 上加载失败，后续请求改用 cpu: %v", h.engine.Name(), err)
	h.gpuOK = false
	h.selected = device.CPU
	return device.CPU, h.load(p, device.CPU, voice)
}

// load 每个 (设备, 音色) 只加载一次，并记录加载耗时和内存增量。
func (h *Harness) load(p tts.Preparer, dev device.Device, voice tts.Voice) error {
	key := loadKey{dev: dev, voice: voice}
	if h.loaded[key] {
		return nil
	}
	sample, err := h.measure(dev, func() error { return p.Prepare(dev, voice) })
	if err != nil {
		return err
	}
	h.loaded[key] = true
	h.loads = append(h.loads, Load{Voice: voice, Device: dev, Sample: sample})

	logger.Infof("[bench] %s 模型加载完成 (voice=%s, device=%s): 耗时 %v, 内存 %s (+%s)",
		h.engine.Name(), voice, dev, sample.Elapsed,
		humanize.IBytes(sample.PeakMemoryBytes()), humanize.IBytes(sample.MemoryDelta()))
	return nil
}

// text 返回场景文本；有 Source 时先生成文本，不计入合成测量。
func (h *Harness) text(ctx context.Context, sc Scenario) (string, error) {
	if sc.Source == nil {
		return sc.Text, nil
	}
	start := time.Now()
	text, err := sc.Source.Text(ctx)
	if err != nil {
		return "", fmt.Errorf("[bench] 生成场景文本失败: %w", err)
	}
	logger.Infof("[bench] %s 文本生成完成 (%d 个字符, 耗时 %v)", sc.Name, len([]rune(text)), time.Since(start))
	return text, nil
}

// synthesize 合成一个场景。chunk_max_length > 0 时按句切分后依次合成并拼接，
// 否则原样提交，超长文本由引擎返回 ErrTextTooLong。
func (h *Harness) synthesize(ctx context.Context, sc Scenario, dev device.Device) (*tts.Result, error) {
	if sc.ChunkMaxLength <= 0 {
		return h.engine.Synthesize(ctx, sc.request(sc.Text, dev))
	}

	chunks := textsplit.Split(sc.Text, sc.ChunkMaxLength)
	logger.Debugf("[bench] %s 切分为 %d 段", sc.Name, len(chunks))

	out := &tts.Result{}
	for i, chunk := range chunks {
		res, err := h.engine.Synthesize(ctx, sc.request(chunk, dev))
		if err != nil {
			return nil, err
		}
		if out.SampleRate == 0 {
			out.SampleRate = res.SampleRate
		} else if res.SampleRate != out.SampleRate {
			return nil, &tts.SynthesisError{
				Engine: h.engine.Name(),
				Voice:  sc.Voice,
				Device: dev,
				Err:    fmt.Errorf("%w: 第 %d 段为 %d，前面为 %d", tts.ErrInvalidSampleRate, i+1, res.SampleRate, out.SampleRate),
			}
		}
		out.Samples = append(out.Samples, res.Samples...)
	}
	return out, nil
}

// Run 依次执行所有场景并返回报告。单个请求失败不影响后续请求；
// ctx 取消后在请求之间停止。
func (h *Harness) Run(ctx context.Context) *Report {
	report := newReport(h.engine.Name())
	report.SelectedDevice = h.SelectDevice()

	for i, sc := range h.scenarios {
		if err := ctx.Err(); err != nil {
			logger.Warnf("[bench] 运行被中断，跳过剩余 %d 个场景: %v", len(h.scenarios)-i, err)
			report.Interrupted = true
			break
		}
		report.Outcomes = append(report.Outcomes, h.runOne(ctx, i, sc))
	}

	report.Loads = h.loads
	report.FinishedAt = time.Now()
	return report
}

func (h *Harness) runOne(ctx context.Context, index int, sc Scenario) Outcome {
	out := Outcome{
		Index:     index,
		Scenario:  sc.Name,
		Voice:     sc.Voice,
		Requested: sc.Device,
	}

	text, err := h.text(ctx, sc)
	if err != nil {
		out.Device = sc.Device
		return h.fail(out, err)
	}
	sc.Text = text
	out.TextRunes = len([]rune(text))

	dev, err := h.prepare(h.resolve(sc.Device), sc.Voice)
	out.Device = dev
	if err != nil {
		return h.fail(out, &tts.SynthesisError{Engine: h.engine.Name(), Voice: sc.Voice, Device: dev, Err: err})
	}

	logger.Infof("[bench] #%d %s 开始合成 (voice=%s, device=%s, %d 个字符)",
		index, sc.Name, sc.Voice, dev, out.TextRunes)

	var result *tts.Result
	sample, err := h.measure(dev, func() error {
		var err error
		result, err = h.synthesize(ctx, sc, dev)
		return err
	})
	out.Sample = sample
	if err == nil {
		if verr := result.Validate(); verr != nil {
			err = &tts.SynthesisError{Engine: h.engine.Name(), Voice: sc.Voice, Device: dev, Err: verr}
		}
	}
	if err != nil {
		return h.fail(out, err)
	}

	out.NumSamples = len(result.Samples)
	out.SampleRate = result.SampleRate
	out.AudioDuration = audio.SamplesDuration(len(result.Samples), result.SampleRate)

	path := h.OutputPath(sc.Name, dev)
	if err := h.writeWAV(result, path); err != nil {
		return h.fail(out, err)
	}
	out.Path = path

	logger.Infof("[bench] #%d %s 完成: 耗时 %v, 峰值内存 %d 字节, 音频 %v → %s",
		index, sc.Name, sample.Elapsed, sample.PeakMemoryBytes(), out.AudioDuration, path)

	if h.player != nil {
		if err := h.player.Play(ctx, result.Samples, result.SampleRate); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warnf("[audio] 回放 %s 失败: %v", path, err)
		}
	}
	return out
}

// fail 记录错误并返回失败的 Outcome。
func (h *Harness) fail(out Outcome, err error) Outcome {
	out.Err = err
	out.Error = err.Error()
	logger.Errorf("[bench] #%d %s (device=%s) 失败: %v", out.Index, out.Scenario, out.Device, err)
	return out
}

// Close 释放引擎。
func (h *Harness) Close() {
	if h.engine != nil {
		h.engine.Close()
	}
}
