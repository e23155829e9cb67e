package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/iabetor/ttsbench/internal/device"
	"github.com/iabetor/ttsbench/internal/tts"
)

// Outcome 是单个请求的结果。Err 非空表示失败，Path 只在写入成功时设置。
type Outcome struct {
	Index         int           `json:"index"`
	Scenario      string        `json:"scenario"`
	Voice         tts.Voice     `json:"voice"`
	Requested     device.Device `json:"requested_device"`
	Device        device.Device `json:"device"`
	TextRunes     int           `json:"text_runes"`
	Sample        Sample        `json:"sample"`
	NumSamples    int           `json:"num_samples,omitempty"`
	SampleRate    int           `json:"sample_rate,omitempty"`
	AudioDuration time.Duration `json:"audio_duration_ns,omitempty"`
	Path          string        `json:"path,omitempty"`
	Error         string        `json:"error,omitempty"`
	Err           error         `json:"-"`
}

// OK 表示请求成功并写出了文件。
func (o Outcome) OK() bool { return o.Err == nil && o.Path != "" }

// RealTimeFactor 返回合成耗时与音频时长之比，小于 1 表示快于实时。
func (o Outcome) RealTimeFactor() float64 {
	if o.AudioDuration <= 0 {
		return 0
	}
	return o.Sample.Elapsed.Seconds() / o.AudioDuration.Seconds()
}

// Report 是一次运行的汇总。
type Report struct {
	RunID          string        `json:"run_id"`
	Engine         string        `json:"engine"`
	SelectedDevice device.Device `json:"selected_device"`
	OS             string        `json:"os"`
	Arch           string        `json:"arch"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
	Interrupted    bool          `json:"interrupted,omitempty"`
	Loads          []Load        `json:"loads,omitempty"`
	Outcomes       []Outcome     `json:"outcomes"`
}

func newReport(engine string) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Engine:    engine,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		StartedAt: time.Now(),
	}
}

// Succeeded 返回成功的请求数。
func (r *Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Failed 返回失败的请求数。
func (r *Report) Failed() int { return len(r.Outcomes) - r.Succeeded() }

// PrintSummary 把报告以表格形式写到 w。
func PrintSummary(w io.Writer, r *Report) error {
	fmt.Fprintf(w, "ttsbench %s  引擎=%s  设备=%s  平台=%s/%s\n",
		r.RunID, r.Engine, r.SelectedDevice, r.OS, r.Arch)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\t场景\t设备\t耗时\t峰值内存\t内存增量\t音频时长\tRTF\t结果")
	for _, o := range r.Outcomes {
		elapsed := fmt.Sprintf("%.3fs", o.Sample.ElapsedSeconds())
		peak := humanize.IBytes(o.Sample.PeakMemoryBytes())
		delta := humanize.IBytes(o.Sample.MemoryDelta())

		audioLen, rtf, result := "-", "-", o.Path
		if o.AudioDuration > 0 {
			audioLen = fmt.Sprintf("%.2fs", o.AudioDuration.Seconds())
			rtf = fmt.Sprintf("%.3f", o.RealTimeFactor())
		}
		if o.Err != nil {
			result = "错误: " + o.Err.Error()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.Index, o.Scenario, o.Device, elapsed, peak, delta, audioLen, rtf, result)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, l := range r.Loads {
		fmt.Fprintf(w, "模型加载 voice=%s device=%s: %.3fs, 峰值内存 %s (+%s)\n",
			l.Voice, l.Device, l.Sample.ElapsedSeconds(),
			humanize.IBytes(l.Sample.PeakMemoryBytes()), humanize.IBytes(l.Sample.MemoryDelta()))
	}

	_, err := fmt.Fprintf(w, "成功 %d / %d，总耗时 %s\n",
		r.Succeeded(), len(r.Outcomes), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	return err
}

// WriteReport 把报告以 JSON 写到 path。
func WriteReport(path string, r *Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &IOError{Op: "创建目录", Path: filepath.Dir(path), Err: err}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &IOError{Op: "写入", Path: path, Err: err}
	}
	return nil
}
