package service

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/UnendingLoop/PhotoApp/internal/imageproc"
	"github.com/UnendingLoop/PhotoApp/internal/keygen"
	"github.com/UnendingLoop/PhotoApp/internal/model"
	"github.com/UnendingLoop/PhotoApp/internal/retrier"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/retry"
)

// Options - параметры сервиса, по умолчанию как у исходного сервиса
type Options struct {
	Retry         retry.Strategy
	MaxLabels     int
	MinConfidence float32
	RestartID     int64
}

func DefaultOptions() Options {
	return Options{
		Retry:         retrier.NewStrategy(2, 500*time.Millisecond, 2),
		MaxLabels:     10,
		MinConfidence: 90,
		RestartID:     1001,
	}
}

// OptionsFromConfig - пустые и некорректные значения заменяются дефолтами
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()

	retries := intFromConfig(cfg, "MAX_RETRIES", 2)
	delay := intFromConfig(cfg, "RETRY_DELAY_MS", 500)
	opts.Retry = retrier.NewStrategy(retries, time.Duration(delay)*time.Millisecond, 2)

	if v := intFromConfig(cfg, "LABELS_MAX", opts.MaxLabels); v > 0 {
		opts.MaxLabels = v
	}
	if v := intFromConfig(cfg, "LABELS_MIN_CONFIDENCE", int(opts.MinConfidence)); v >= 0 && v <= 100 {
		opts.MinConfidence = float32(v)
	}
	if v := intFromConfig(cfg, "ASSET_ID_RESTART", int(opts.RestartID)); v > 0 {
		opts.RestartID = int64(v)
	}

	return opts
}

func intFromConfig(cfg *config.Config, key string, def int) int {
	raw := strings.TrimSpace(cfg.GetString(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// ParseUploadRequest декодирует base64 и проверяет, что это поддерживаемая картинка
func ParseUploadRequest(userID int64, req model.UploadRequest) (*model.UploadData, error) {
	name := strings.TrimSpace(keygen.BaseName(req.LocalFilename))
	if name == "" {
		return nil, model.ErrEmptyFilename
	}

	payload := strings.TrimSpace(req.Payload())
	if payload == "" {
		return nil, model.ErrEmptyImage
	}
	content, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, model.ErrEmptyImage.Wrap(err)
	}

	return &model.UploadData{
		UserID:        userID,
		LocalFilename: name,
		Content:       content,
	}, nil
}

func validateUpload(in *model.UploadData) error {
	if in == nil || len(in.Content) == 0 {
		return model.ErrEmptyImage
	}
	if len(in.Content) > model.MaxImageBytes {
		return model.ErrImageTooLarge.Wrapf("%d bytes", len(in.Content))
	}
	in.LocalFilename = strings.TrimSpace(keygen.BaseName(in.LocalFilename))
	if in.LocalFilename == "" {
		return model.ErrEmptyFilename
	}

	_, cType, err := imageproc.DetectFormat(in.Content)
	if err != nil {
		return model.ErrUnsupportedFormat.Wrap(err)
	}
	in.ContentType = cType

	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike - пользовательская подстрока ищется буквально
func escapeLike(pattern string) string {
	return likeEscaper.Replace(pattern)
}
