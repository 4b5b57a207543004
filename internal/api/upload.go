package api

import (
	"errors"
	"net/http"
	"os"

	"github.com/npezzotti/go-dating-chat/internal/storage"
)

// multipart framing allowance on top of the file itself
const uploadOverhead = 1 << 20

type UploadResponse struct {
	FileUrl  string `json:"fileUrl"`
	FileType string `json:"fileType"`
}

// receiveUpload stores the multipart file field of r. On failure the error
// response has already been written.
func (s *GoChatApp) receiveUpload(w http.ResponseWriter, r *http.Request) (storage.StoredFile, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxFileSize+uploadOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var errResp *ApiError
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			errResp = NewRequestEntityTooLargeError()
		} else {
			errResp = NewBadRequestError()
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return storage.StoredFile{}, false
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !storage.Supported(contentType) {
		errResp := NewUnsupportedMediaTypeError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return storage.StoredFile{}, false
	}

	if header.Size > storage.MaxFileSize {
		errResp := NewRequestEntityTooLargeError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return storage.StoredFile{}, false
	}

	f, err := s.store.Save(header.Filename, contentType, file)
	if err != nil {
		var errResp *ApiError
		switch {
		case errors.Is(err, storage.ErrUnsupportedType):
			errResp = NewUnsupportedMediaTypeError()
		case errors.Is(err, storage.ErrTooLarge):
			errResp = NewRequestEntityTooLargeError()
		default:
			s.log.Println("save upload:", err)
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return storage.StoredFile{}, false
	}

	s.log.Printf("stored upload %q (%d bytes)", f.Name, f.Size)
	return f, true
}

func (s *GoChatApp) uploadFile(w http.ResponseWriter, r *http.Request) {
	f, ok := s.receiveUpload(w, r)
	if !ok {
		return
	}

	s.writeJson(w, http.StatusOK, UploadResponse{FileUrl: f.URL, FileType: f.ContentType})
}

// filesOnly serves regular files and hides directories, so upload
// listings are never exposed.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}
