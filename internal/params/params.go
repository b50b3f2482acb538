package params

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/DMarby/blobcrop/internal/image"
	"github.com/DMarby/blobcrop/internal/pipeline"
	"github.com/gorilla/mux"
)

// Errors
var (
	ErrInvalidFileExtension = errors.New("Invalid file extension")
	ErrInvalidParameter     = errors.New("Invalid parameter")
)

const (
	defaultBlurKernel  = 5
	defaultSobelKernel = 3
	maxKernel          = 101
)

// Params contains all the parameters for a request
type Params struct {
	Extension string
	Format    image.OutputFormat
	Pipeline  pipeline.Params
}

// GetParams parses and returns all the path and query parameters
func GetParams(r *http.Request) (*Params, error) {
	extension, format, err := getFileExtension(r)
	if err != nil {
		return nil, err
	}

	pipelineParams, err := FromQuery(r.URL.Query())
	if err != nil {
		return nil, err
	}

	return &Params{
		Extension: extension,
		Format:    format,
		Pipeline:  pipelineParams,
	}, nil
}

// getFileExtension gets the file extension (if present) from the path params, and validates it
func getFileExtension(r *http.Request) (string, image.OutputFormat, error) {
	vars := mux.Vars(r)

	// We normalize having no extension since it's an optional path param
	extension := strings.ToLower(vars["extension"])
	if extension == "" {
		extension = ".png"
	}

	format, err := image.FormatFromExtension(extension)
	if err != nil {
		return "", 0, ErrInvalidFileExtension
	}

	return format.Extension(), format, nil
}

// FromQuery parses pipeline parameters from query values, starting from the defaults
func FromQuery(query url.Values) (pipeline.Params, error) {
	p := pipeline.DefaultParams()

	if v, ok := lookup(query, "color"); ok {
		switch strings.ToLower(v) {
		case "", "gray", "grey", "grayscale":
			p.Color = pipeline.ColorLuminance
		case "red":
			p.Color = pipeline.ColorRed
		case "green":
			p.Color = pipeline.ColorGreen
		case "blue":
			p.Color = pipeline.ColorBlue
		default:
			return p, invalid("color")
		}
	}

	if v, ok := lookup(query, "blur"); ok {
		blur, err := parseBlur(v)
		if err != nil {
			return p, err
		}
		p.Blur = blur
	}

	if v, ok := lookup(query, "sobel"); ok {
		p.Sobel = defaultSobelKernel
		if v != "" {
			kernel, err := strconv.Atoi(v)
			if err != nil || kernel < 1 || kernel > maxKernel {
				return p, invalid("sobel")
			}
			p.Sobel = kernel
		}
	}

	if _, ok := lookup(query, "inverse"); ok {
		p.Detect.Inverse = true
	}

	floats := []struct {
		name   string
		fields []*float32
	}{
		{"threshold", []*float32{&p.Detect.Threshold}},
		{"max", []*float32{&p.Detect.MaxValue}},
		{"area", []*float32{&p.Detect.MinArea, &p.Detect.MaxArea}},
		{"position", []*float32{&p.Detect.Left, &p.Detect.Top, &p.Detect.Right, &p.Detect.Bottom}},
		{"crop", []*float32{&p.Detect.CropWidth, &p.Detect.CropHeight}},
	}

	for _, f := range floats {
		v, ok := lookup(query, f.name)
		if !ok {
			continue
		}

		values, err := parseFloats(f.name, v, len(f.fields))
		if err != nil {
			return p, err
		}

		for i, field := range f.fields {
			*field = values[i]
		}
	}

	if v, ok := lookup(query, "mode"); ok {
		mode, err := pipeline.ParseCropMode(v)
		if err != nil {
			return p, invalid("mode")
		}
		p.Mode = mode
	}

	return p, nil
}

// Query encodes pipeline parameters as query values that FromQuery parses back to the same parameters
func Query(p pipeline.Params) url.Values {
	q := url.Values{}
	q.Set("color", p.Color.String())

	if p.Blur != nil {
		q.Set("blur", fmt.Sprintf("%d,%d,%s,%s", p.Blur.KernelX, p.Blur.KernelY, formatFloat(p.Blur.SigmaX), formatFloat(p.Blur.SigmaY)))
	}

	if p.Sobel > 0 {
		q.Set("sobel", strconv.Itoa(p.Sobel))
	}

	if p.Detect.Inverse {
		q.Set("inverse", "")
	}

	d := p.Detect
	q.Set("threshold", formatFloat(d.Threshold))
	q.Set("max", formatFloat(d.MaxValue))
	q.Set("area", formatFloats(d.MinArea, d.MaxArea))
	q.Set("position", formatFloats(d.Left, d.Top, d.Right, d.Bottom))
	q.Set("crop", formatFloats(d.CropWidth, d.CropHeight))
	q.Set("mode", p.Mode.String())

	return q
}

// parseBlur parses "", "k", "kx,ky" or "kx,ky,sigmax,sigmay"
func parseBlur(v string) (*pipeline.Blur, error) {
	blur := &pipeline.Blur{KernelX: defaultBlurKernel, KernelY: defaultBlurKernel}
	if v == "" {
		return blur, nil
	}

	parts := strings.Split(v, ",")
	if len(parts) != 1 && len(parts) != 2 && len(parts) != 4 {
		return nil, invalid("blur")
	}

	kernels := make([]int, 0, 2)
	for _, part := range parts[:min(len(parts), 2)] {
		k, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || k < 1 || k > maxKernel {
			return nil, invalid("blur")
		}
		kernels = append(kernels, k)
	}

	blur.KernelX, blur.KernelY = kernels[0], kernels[len(kernels)-1]

	if len(parts) == 4 {
		sigmas, err := parseFloats("blur", strings.Join(parts[2:], ","), 2)
		if err != nil {
			return nil, err
		}
		blur.SigmaX, blur.SigmaY = sigmas[0], sigmas[1]
	}

	return blur, nil
}

// parseFloats parses n comma separated numbers; a single number is repeated n times
func parseFloats(name, v string, n int) ([]float32, error) {
	parts := strings.Split(v, ",")
	if len(parts) != n && len(parts) != 1 {
		return nil, invalid(name)
	}

	values := make([]float32, n)
	for i := range values {
		part := parts[0]
		if len(parts) == n {
			part = parts[i]
		}

		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil || f != f {
			return nil, invalid(name)
		}
		values[i] = float32(f)
	}

	return values, nil
}

func lookup(query url.Values, name string) (string, bool) {
	if _, ok := query[name]; !ok {
		return "", false
	}
	return query.Get(name), true
}

func invalid(name string) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, name)
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}

func formatFloats(values ...float32) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, ",")
}
