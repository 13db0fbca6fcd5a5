// Package imaging 提供图片解码与缩略图生成。
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// maxThumbnailEdge 是缩略图最长边的像素数。
const maxThumbnailEdge = 320

// Info 描述一张已解码图片的基本属性。
type Info struct {
	Width  int
	Height int
	Format string
}

// Decode 解码图片字节并返回图像对象与尺寸信息。
// 支持 JPEG/PNG/GIF，其它格式返回错误。
func Decode(data []byte) (image.Image, *Info, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("解码图片失败: %w", err)
	}
	bounds := img.Bounds()
	return img, &Info{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
	}, nil
}

// Thumbnail 生成保持宽高比的 JPEG 缩略图，最长边不超过 maxThumbnailEdge。
// 原图已经足够小时直接重新编码，不做放大。
func Thumbnail(img image.Image) ([]byte, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	scale := 1.0
	if w > h && w > maxThumbnailEdge {
		scale = float64(maxThumbnailEdge) / float64(w)
	} else if h >= w && h > maxThumbnailEdge {
		scale = float64(maxThumbnailEdge) / float64(h)
	}

	dst := img
	if scale < 1.0 {
		dw := int(float64(w) * scale)
		dh := int(float64(h) * scale)
		if dw < 1 {
			dw = 1
		}
		if dh < 1 {
			dh = 1
		}
		scaled := image.NewRGBA(image.Rect(0, 0, dw, dh))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
		dst = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("编码缩略图失败: %w", err)
	}
	return buf.Bytes(), nil
}
