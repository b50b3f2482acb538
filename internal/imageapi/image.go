package imageapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/DMarby/blobcrop/internal/handler"
	"github.com/DMarby/blobcrop/internal/image"
	"github.com/DMarby/blobcrop/internal/params"
	"github.com/DMarby/blobcrop/internal/pipeline"
	"github.com/DMarby/blobcrop/internal/storage"
	"github.com/gorilla/mux"
	"github.com/twmb/murmur3"
)

func (a *API) imageHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	// Get the path and query parameters
	p, err := params.GetParams(r)
	if err != nil {
		return handler.BadRequest(err.Error())
	}

	if handlerErr := a.validateHMAC(r); handlerErr != nil {
		return handlerErr
	}

	imageID := mux.Vars(r)["id"]
	task := image.NewTask(imageID, p.Pipeline, p.Format)

	processedImage, handlerErr := a.processImage(r, task)
	if handlerErr != nil {
		return handlerErr
	}

	w.Header().Set("Cache-Control", "public, max-age=2592000") // Cache for a month
	a.writeImage(w, r, task, processedImage)

	return nil
}

func (a *API) uploadHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	p, err := params.GetParams(r)
	if err != nil {
		return handler.BadRequest(err.Error())
	}

	source, handlerErr := a.readUpload(w, r)
	if handlerErr != nil {
		return handlerErr
	}

	task := image.NewUploadTask(uploadID(source), source, p.Pipeline, p.Format)

	processedImage, handlerErr := a.processImage(r, task)
	if handlerErr != nil {
		return handlerErr
	}

	w.Header().Set("Cache-Control", "private, no-cache, no-store, must-revalidate")
	a.writeImage(w, r, task, processedImage)

	return nil
}

func (a *API) analysisHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	pipelineParams, err := params.FromQuery(r.URL.Query())
	if err != nil {
		return handler.BadRequest(err.Error())
	}

	if handlerErr := a.validateHMAC(r); handlerErr != nil {
		return handlerErr
	}

	imageID := mux.Vars(r)["id"]
	analysis, handlerErr := a.analyze(r, image.NewTask(imageID, pipelineParams, image.PNG))
	if handlerErr != nil {
		return handlerErr
	}

	w.Header().Set("Cache-Control", "public, max-age=2592000")
	w.Header().Set(IDHeader, imageID)

	return handler.WriteJSON(w, analysis)
}

func (a *API) uploadAnalysisHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	pipelineParams, err := params.FromQuery(r.URL.Query())
	if err != nil {
		return handler.BadRequest(err.Error())
	}

	source, handlerErr := a.readUpload(w, r)
	if handlerErr != nil {
		return handlerErr
	}

	id := uploadID(source)
	analysis, handlerErr := a.analyze(r, image.NewUploadTask(id, source, pipelineParams, image.PNG))
	if handlerErr != nil {
		return handlerErr
	}

	w.Header().Set("Cache-Control", "private, no-cache, no-store, must-revalidate")
	w.Header().Set(IDHeader, id)

	return handler.WriteJSON(w, analysis)
}

func (a *API) validateHMAC(r *http.Request) *handler.Error {
	valid, err := params.ValidateHMAC(a.HMAC, r)
	if err != nil {
		a.logError(r, "error validating hmac", err)
		return handler.InternalServerError()
	}

	if !valid {
		return &handler.Error{Message: "Invalid signature", Code: http.StatusUnauthorized}
	}

	return nil
}

func (a *API) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, *handler.Error) {
	source, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.maxUploadSize()))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, &handler.Error{Message: "Image too large", Code: http.StatusRequestEntityTooLarge}
		}

		return nil, handler.BadRequest("Error reading image")
	}

	if len(source) == 0 {
		return nil, handler.BadRequest("Missing image")
	}

	return source, nil
}

func (a *API) processImage(r *http.Request, task *image.Task) ([]byte, *handler.Error) {
	processedImage, err := a.ImageProcessor.ProcessImage(r.Context(), task)
	if err != nil {
		return nil, a.processingError(r, task, err)
	}

	return processedImage, nil
}

func (a *API) analyze(r *http.Request, task *image.Task) (*image.Analysis, *handler.Error) {
	analysis, err := a.ImageProcessor.Analyze(r.Context(), task)
	if err != nil {
		return nil, a.processingError(r, task, err)
	}

	return analysis, nil
}

func (a *API) processingError(r *http.Request, task *image.Task, err error) *handler.Error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return handler.NotFound(storage.ErrNotFound.Error())
	case errors.Is(err, storage.ErrInvalidID):
		return handler.BadRequest(storage.ErrInvalidID.Error())
	case task.Source != nil && errors.Is(err, image.ErrUnsupportedFormat):
		return handler.BadRequest("Unsupported image format")
	case task.Source != nil && errors.Is(err, image.ErrInvalidImage):
		return handler.BadRequest("Invalid image")
	case task.Source != nil && errors.Is(err, image.ErrImageTooLarge):
		return &handler.Error{Message: "Image too large", Code: http.StatusRequestEntityTooLarge}
	}

	a.logError(r, "error processing image", err)
	return handler.InternalServerError()
}

func (a *API) writeImage(w http.ResponseWriter, r *http.Request, task *image.Task, processedImage []byte) {
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", buildFilename(task)))
	w.Header().Set("Content-Type", task.OutputFormat.ContentType())
	w.Header().Set(IDHeader, task.ImageID)

	if _, err := w.Write(processedImage); err != nil {
		a.logError(r, "error writing image", err)
	}
}

// uploadID names an upload by the hash of its content
func uploadID(source []byte) string {
	return fmt.Sprintf("upload-%016x", murmur3.Sum64(source))
}

func buildFilename(task *image.Task) string {
	p := task.Params
	filename := fmt.Sprintf("%s-%s", task.ImageID, p.Mode)

	if p.Color != pipeline.ColorLuminance {
		filename += "-" + p.Color.String()
	}

	if p.Blur != nil {
		filename += fmt.Sprintf("-blur_%dx%d", p.Blur.KernelX, p.Blur.KernelY)
	}

	if p.Sobel > 0 {
		filename += fmt.Sprintf("-sobel_%d", p.Sobel)
	}

	filename += task.OutputFormat.Extension()

	return filename
}
