package params_test

import (
	"errors"
	"net/http"
	"net/url"
	"reflect"
	"testing"

	"github.com/DMarby/blobcrop/internal/hmac"
	"github.com/DMarby/blobcrop/internal/image"
	"github.com/DMarby/blobcrop/internal/params"
	"github.com/DMarby/blobcrop/internal/pipeline"
	"github.com/gorilla/mux"
)

func TestFromQuery(t *testing.T) {
	withDefaults := func(f func(p *pipeline.Params)) pipeline.Params {
		p := pipeline.DefaultParams()
		f(&p)
		return p
	}

	tests := []struct {
		Name     string
		Query    string
		Expected pipeline.Params
		Error    bool
	}{
		{"defaults", "", pipeline.DefaultParams(), false},
		{"color", "color=red", withDefaults(func(p *pipeline.Params) { p.Color = pipeline.ColorRed }), false},
		{"bare blur", "blur", withDefaults(func(p *pipeline.Params) { p.Blur = &pipeline.Blur{KernelX: 5, KernelY: 5} }), false},
		{"blur kernel", "blur=7", withDefaults(func(p *pipeline.Params) { p.Blur = &pipeline.Blur{KernelX: 7, KernelY: 7} }), false},
		{"blur kernels", "blur=3,9", withDefaults(func(p *pipeline.Params) { p.Blur = &pipeline.Blur{KernelX: 3, KernelY: 9} }), false},
		{"blur full", "blur=3,5,1.5,2", withDefaults(func(p *pipeline.Params) {
			p.Blur = &pipeline.Blur{KernelX: 3, KernelY: 5, SigmaX: 1.5, SigmaY: 2}
		}), false},
		{"bare sobel", "sobel", withDefaults(func(p *pipeline.Params) { p.Sobel = 3 }), false},
		{"threshold", "threshold=100&max=200&inverse", withDefaults(func(p *pipeline.Params) {
			p.Detect.Threshold, p.Detect.MaxValue, p.Detect.Inverse = 100, 200, true
		}), false},
		{"area", "area=1,50", withDefaults(func(p *pipeline.Params) { p.Detect.MinArea, p.Detect.MaxArea = 1, 50 }), false},
		{"position", "position=10,20,90,80", withDefaults(func(p *pipeline.Params) {
			p.Detect.Left, p.Detect.Top, p.Detect.Right, p.Detect.Bottom = 10, 20, 90, 80
		}), false},
		{"square crop", "crop=40", withDefaults(func(p *pipeline.Params) { p.Detect.CropWidth, p.Detect.CropHeight = 40, 40 }), false},
		{"mode", "mode=preview", withDefaults(func(p *pipeline.Params) { p.Mode = pipeline.ModePreview }), false},

		{"invalid color", "color=purple", pipeline.Params{}, true},
		{"invalid blur", "blur=a", pipeline.Params{}, true},
		{"invalid blur parts", "blur=1,2,3", pipeline.Params{}, true},
		{"blur kernel too large", "blur=1000", pipeline.Params{}, true},
		{"invalid sobel", "sobel=0", pipeline.Params{}, true},
		{"invalid area", "area=1,2,3", pipeline.Params{}, true},
		{"nan threshold", "threshold=NaN", pipeline.Params{}, true},
		{"invalid mode", "mode=sideways", pipeline.Params{}, true},
	}

	for _, test := range tests {
		query, _ := url.ParseQuery(test.Query)
		p, err := params.FromQuery(query)
		if test.Error {
			if !errors.Is(err, params.ErrInvalidParameter) {
				t.Errorf("%s: wrong error %v", test.Name, err)
			}
			continue
		}

		if err != nil {
			t.Errorf("%s: %s", test.Name, err)
			continue
		}

		if !reflect.DeepEqual(p, test.Expected) {
			t.Errorf("%s: wrong params %+v", test.Name, p)
		}
	}
}

func TestQueryRoundTrip(t *testing.T) {
	p := pipeline.DefaultParams()
	p.Color = pipeline.ColorBlue
	p.Blur = &pipeline.Blur{KernelX: 3, KernelY: 7, SigmaX: 0.5, SigmaY: 1.25}
	p.Sobel = 5
	p.Detect.Inverse = true
	p.Detect.Threshold = 42.5
	p.Detect.MinArea, p.Detect.MaxArea = 0.5, 20
	p.Mode = pipeline.ModeBlobs

	parsed, err := params.FromQuery(params.Query(p))
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(parsed, p) {
		t.Errorf("wrong params %+v", parsed)
	}
}

func TestGetParams(t *testing.T) {
	tests := []struct {
		Path     string
		Format   image.OutputFormat
		Expected string
		Error    error
	}{
		{"/process", image.PNG, ".png", nil},
		{"/process.PNG", image.PNG, ".png", nil},
		{"/process.jpeg", image.JPEG, ".jpg", nil},
		{"/process.gif", image.PNG, "", params.ErrInvalidFileExtension},
		{"/process?mode=nope", image.PNG, "", params.ErrInvalidParameter},
	}

	for _, test := range tests {
		var p *params.Params
		var err error

		router := mux.NewRouter()
		router.HandleFunc("/process{extension:(?:\\..*)?}", func(w http.ResponseWriter, r *http.Request) {
			p, err = params.GetParams(r)
		})

		req, _ := http.NewRequest("GET", test.Path, nil)
		router.ServeHTTP(nil, req)

		if test.Error != nil {
			if !errors.Is(err, test.Error) {
				t.Errorf("%s: wrong error %v", test.Path, err)
			}
			continue
		}

		if err != nil {
			t.Errorf("%s: %s", test.Path, err)
			continue
		}

		if p.Extension != test.Expected || p.Format != test.Format {
			t.Errorf("%s: wrong extension %s", test.Path, p.Extension)
		}
	}
}

func TestBuildQuery(t *testing.T) {
	query := url.Values{"mode": {"crop"}, "inverse": {""}, "blur": {"3,3"}}
	if q := params.BuildQuery(query); q != "?blur=3%2C3&inverse&mode=crop" {
		t.Errorf("wrong query %s", q)
	}

	if q := params.BuildQuery(url.Values{}); q != "" {
		t.Errorf("wrong query %s", q)
	}
}

func TestHMAC(t *testing.T) {
	h := &hmac.HMAC{Key: []byte("test")}

	signed, err := params.HMAC(h, "/id/1/process.png", url.Values{"mode": {"crop"}, "hmac": {"stale"}})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		Name     string
		URL      string
		Expected bool
	}{
		{"signed", signed, true},
		{"missing", "/id/1/process.png?mode=crop", false},
		{"tampered path", "/id/2/process.png" + signed[len("/id/1/process.png"):], false},
		{"tampered query", signed + "&blur", false},
	}

	for _, test := range tests {
		req, _ := http.NewRequest("GET", test.URL, nil)
		valid, err := params.ValidateHMAC(h, req)
		if err != nil {
			t.Errorf("%s: %s", test.Name, err)
			continue
		}

		if valid != test.Expected {
			t.Errorf("%s: wrong result %t", test.Name, valid)
		}
	}
}
