package image

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"strings"

	"recipe-app-api/internal/pkg/common"

	_ "image/gif" // 支援 GIF

	_ "golang.org/x/image/webp" // 支援 WebP
)

// Service 圖片處理服務：驗證前端上傳的 base64 圖片並統一轉為 JPEG。
type Service struct {
	maxSizeBytes int64
}

// NewService 創建新的圖片處理服務
func NewService(maxSizeBytes int64) *Service {
	return &Service{
		maxSizeBytes: maxSizeBytes,
	}
}

// Prepare 驗證並正規化圖片資料，回傳裸 base64 與 MIME 類型。
// 接受 data URI（data:image/...;base64,xxx）或裸 base64 字串。
func (s *Service) Prepare(imageData string) (string, string, error) {
	raw := imageData

	// 去掉 data URI 前綴
	if strings.HasPrefix(imageData, "data:") {
		if !strings.HasPrefix(imageData, "data:image/") {
			return "", "", common.ErrInvalidImageFormat
		}
		parts := strings.SplitN(imageData, ",", 2)
		if len(parts) != 2 {
			return "", "", common.ErrInvalidImageFormat
		}
		raw = parts[1]
	}

	decodedData, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", "", common.WrapError(common.ErrInvalidImageFormat, err)
	}

	if int64(len(decodedData)) > s.maxSizeBytes {
		return "", "", common.ErrInvalidImageSize
	}

	img, format, err := image.Decode(bytes.NewReader(decodedData))
	if err != nil {
		return "", "", common.WrapError(common.ErrInvalidImageFormat, err)
	}

	if !isSupportedFormat(format) {
		return "", "", common.ErrInvalidImageFormat
	}

	// 統一轉為 JPEG，模型端只需處理一種格式
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return "", "", common.WrapError(common.ErrInvalidImageFormat, err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), "image/jpeg", nil
}

// isSupportedFormat 檢查圖片格式是否支援
func isSupportedFormat(format string) bool {
	supportedFormats := map[string]bool{
		"jpeg": true,
		"jpg":  true,
		"png":  true,
		"gif":  true,
		"webp": true,
	}
	return supportedFormats[format]
}
