package server

import (
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path"

	"imitation-game/internal/media"

	"github.com/gin-gonic/gin"
)

const (
	audioField    = "audio"
	clipsField    = "clips"
	clipMediaType = "video/mp4"
	// multipartSlack covers headers and boundaries around the file parts.
	multipartSlack = 1 << 20
)

type uploadClipQuery struct {
	RoomID string `form:"roomId" binding:"required,joincode"`
}

type uploadedClip struct {
	Filename   string `json:"filename"`
	PublicPath string `json:"publicPath"`
}

type mediaURI struct {
	Code string `uri:"code"`
	File string `uri:"file" binding:"required"`
}

var uploadMessages = bindMessages{
	"RoomID": {
		"required": "roomId is required",
		"joincode": "roomId must be a 6 digit session code",
	},
}

func (s *Server) handleUploadRecording(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxAudioBytes+multipartSlack)
	header, err := c.FormFile(audioField)
	if err != nil {
		if tooLarge(err) {
			writeError(c, http.StatusRequestEntityTooLarge, "recording too large")
			return
		}
		writeError(c, http.StatusBadRequest, "no audio file received")
		return
	}
	if header.Size > s.cfg.MaxAudioBytes {
		writeError(c, http.StatusRequestEntityTooLarge, "recording too large")
		return
	}
	handle, err := s.saveRecording(header)
	if err != nil {
		if errors.Is(err, media.ErrTooLarge) {
			writeError(c, http.StatusRequestEntityTooLarge, "recording too large")
			return
		}
		s.log.Warn().Err(err).Msg("store recording")
		writeError(c, http.StatusInternalServerError, "could not store recording")
		return
	}
	s.log.Debug().Str("handle", handle).Int64("bytes", header.Size).Msg("recording uploaded")
	c.JSON(http.StatusOK, gin.H{"filename": handle})
}

func (s *Server) saveRecording(header *multipart.FileHeader) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	return s.media.SaveRecording(src, s.cfg.MaxAudioBytes)
}

func (s *Server) handleUploadClips(c *gin.Context) {
	var query uploadClipQuery
	if !bindQuery(c, &query, uploadMessages, "invalid roomId") {
		return
	}
	if _, ok := s.rooms.Lookup(query.RoomID); !ok {
		writeError(c, http.StatusNotFound, "session not found")
		return
	}
	limit := s.cfg.MaxClipBytes*int64(s.cfg.MaxClipsPerUpload) + multipartSlack
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	form, err := c.MultipartForm()
	if err != nil {
		if tooLarge(err) {
			writeError(c, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(c, http.StatusBadRequest, "no files received")
		return
	}
	files := form.File[clipsField]
	if len(files) == 0 {
		writeError(c, http.StatusBadRequest, "no files received")
		return
	}
	if len(files) > s.cfg.MaxClipsPerUpload {
		writeError(c, http.StatusBadRequest, "too many files")
		return
	}
	for _, header := range files {
		if header.Header.Get("Content-Type") != clipMediaType {
			writeError(c, http.StatusBadRequest, "only mp4 clips are accepted")
			return
		}
		if header.Size > s.cfg.MaxClipBytes {
			writeError(c, http.StatusRequestEntityTooLarge, "clip too large")
			return
		}
	}

	saved := make([]uploadedClip, 0, len(files))
	for _, header := range files {
		name, err := s.saveClip(query.RoomID, header)
		if err != nil {
			if errors.Is(err, media.ErrTooLarge) {
				writeError(c, http.StatusRequestEntityTooLarge, "clip too large")
				return
			}
			s.log.Warn().Str("session", query.RoomID).Err(err).Msg("store clip")
			writeError(c, http.StatusInternalServerError, "could not store clip")
			return
		}
		saved = append(saved, uploadedClip{Filename: name, PublicPath: path.Join(query.RoomID, name)})
	}
	s.log.Info().Str("session", query.RoomID).Int("clips", len(saved)).Msg("clips uploaded")
	c.JSON(http.StatusOK, gin.H{"success": true, "files": saved})
}

func (s *Server) saveClip(session string, header *multipart.FileHeader) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	return s.media.SaveClip(session, src, s.cfg.MaxClipBytes)
}

func (s *Server) handleRecordingFile(c *gin.Context) {
	var uri mediaURI
	if !bindURI(c, &uri) {
		return
	}
	file, err := s.media.RecordingPath(uri.File)
	if err != nil {
		writeError(c, http.StatusNotFound, "recording not found")
		return
	}
	serveFile(c, file)
}

func (s *Server) handleClipFile(c *gin.Context) {
	var uri mediaURI
	if !bindURI(c, &uri) {
		return
	}
	file, err := s.media.ClipPath(uri.Code, uri.File)
	if err != nil {
		writeError(c, http.StatusNotFound, "clip not found")
		return
	}
	serveFile(c, file)
}

func serveFile(c *gin.Context, file string) {
	info, err := os.Stat(file)
	if err != nil || !info.Mode().IsRegular() {
		writeError(c, http.StatusNotFound, "file not found")
		return
	}
	c.File(file)
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
