package decode

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"tiersort/internal/media"
)

// FFmpeg decodes videos by running ffmpeg and reading raw RGB frames from
// its stdout. ffprobe supplies the frame size up front.
type FFmpeg struct {
	FFmpegPath  string
	FFprobePath string
	// MaxWidth and MaxHeight, when set, make ffmpeg scale frames down to fit
	// so less data crosses the pipe.
	MaxWidth  int
	MaxHeight int
}

// NewFFmpeg returns a decoder using the given binaries.
func NewFFmpeg(ffmpegPath, ffprobePath string, maxW, maxH int) *FFmpeg {
	return &FFmpeg{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath, MaxWidth: maxW, MaxHeight: maxH}
}

// Open probes path and starts decoding from the first frame.
func (f *FFmpeg) Open(path string) (VideoSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	w, h, err := f.probe(path)
	if err != nil {
		return nil, err
	}
	if f.MaxWidth > 0 && f.MaxHeight > 0 {
		w, h = media.FitWithin(w, h, f.MaxWidth, f.MaxHeight)
	}

	src := &ffmpegSource{
		bin:    f.FFmpegPath,
		path:   path,
		width:  w,
		height: h,
		buf:    make([]byte, w*h*3),
	}
	if err := src.start(); err != nil {
		return nil, err
	}
	return src, nil
}

func (f *FFmpeg) probe(path string) (int, int, error) {
	cmd := exec.Command(f.FFprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height:stream_tags=rotate:stream_side_data=rotation",
		"-of", "json",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseProbe(out)
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	Width    int               `json:"width"`
	Height   int               `json:"height"`
	Tags     map[string]string `json:"tags"`
	SideData []probeSideData   `json:"side_data_list"`
}

type probeSideData struct {
	Rotation float64 `json:"rotation"`
}

// parseProbe reads the display size of the first video stream from
// ffprobe's JSON. ffmpeg applies the stream rotation before any filter runs,
// so quarter turns swap width and height.
func parseProbe(out []byte) (int, int, error) {
	var p probeOutput
	if err := json.Unmarshal(out, &p); err != nil {
		return 0, 0, fmt.Errorf("unexpected ffprobe output: %w", err)
	}
	if len(p.Streams) == 0 {
		return 0, 0, fmt.Errorf("no video stream")
	}
	st := p.Streams[0]
	if st.Width <= 0 || st.Height <= 0 {
		return 0, 0, fmt.Errorf("invalid video size %dx%d", st.Width, st.Height)
	}

	rotation := 0
	if tag := strings.TrimSpace(st.Tags["rotate"]); tag != "" {
		if r, err := strconv.Atoi(tag); err == nil {
			rotation = r
		}
	}
	for _, sd := range st.SideData {
		if sd.Rotation != 0 {
			rotation = int(sd.Rotation)
		}
	}
	if quarterTurn(rotation) {
		return st.Height, st.Width, nil
	}
	return st.Width, st.Height, nil
}

func quarterTurn(degrees int) bool {
	d := ((degrees % 360) + 360) % 360
	return d == 90 || d == 270
}

type ffmpegSource struct {
	bin    string
	path   string
	width  int
	height int

	cmd    *exec.Cmd
	stdout io.ReadCloser
	r      *bufio.Reader
	buf    []byte
	closed bool
}

func (s *ffmpegSource) start() error {
	cmd := exec.Command(s.bin,
		"-v", "error",
		"-nostdin",
		"-i", s.path,
		"-an",
		"-vf", fmt.Sprintf("scale=%d:%d", s.width, s.height),
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	s.cmd = cmd
	s.stdout = stdout
	s.r = bufio.NewReaderSize(stdout, len(s.buf))
	return nil
}

func (s *ffmpegSource) stop() {
	if s.cmd == nil {
		return
	}
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	s.cmd = nil
	s.stdout = nil
	s.r = nil
}

func (s *ffmpegSource) ReadFrame() (image.Image, error) {
	if s.closed {
		return nil, os.ErrClosed
	}
	if s.r == nil {
		return nil, io.EOF
	}
	if _, err := io.ReadFull(s.r, s.buf); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, io.EOF
		}
		return nil, err
	}
	return rgbToImage(s.buf, s.width, s.height), nil
}

func (s *ffmpegSource) Rewind() error {
	if s.closed {
		return os.ErrClosed
	}
	s.stop()
	return s.start()
}

func (s *ffmpegSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.stop()
	return nil
}

// rgbToImage copies packed rgb24 pixels into a new RGBA image.
func rgbToImage(buf []byte, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, j := 0, 0; i+2 < len(buf) && j+3 < len(img.Pix); i, j = i+3, j+4 {
		img.Pix[j] = buf[i]
		img.Pix[j+1] = buf[i+1]
		img.Pix[j+2] = buf[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}
