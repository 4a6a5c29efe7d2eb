package rectpack

import "image"

// compose 分配清零的像素缓冲区，并把每张图片按行复制到其偏移处
func (a *Atlas) compose() {
	stride := a.Width * 4
	a.Pix = make([]byte, stride*a.Height)
	for _, img := range a.Images {
		row := img.Width * 4
		src := img.Pix
		dst := img.Y*stride + img.X*4
		for iy := 0; iy < img.Height; iy++ {
			copy(a.Pix[dst:dst+row], src[:row])
			src = src[row:]
			dst += stride
		}
	}
}

// Image 返回共享 Pix 的 *image.NRGBA 视图，不复制像素
func (a *Atlas) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    a.Pix,
		Stride: a.Width * 4,
		Rect:   image.Rect(0, 0, a.Width, a.Height),
	}
}

// Used 返回图集面积利用率，值在 0.0 到 1.0 之间
func (a *Atlas) Used() float64 {
	if a.Width == 0 || a.Height == 0 {
		return 0
	}
	var area int
	for _, img := range a.Images {
		area += img.Area()
	}
	return float64(area) / float64(a.Width*a.Height)
}

// NewSourceImage 从 img 构造输入图片。
// 行紧密排列时直接引用 img 的像素，否则逐行复制。
func NewSourceImage(img *image.NRGBA) SourceImage {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	row := w * 4
	start := img.PixOffset(b.Min.X, b.Min.Y)
	if img.Stride == row {
		return SourceImage{Pix: img.Pix[start : start+row*h], Width: w, Height: h}
	}
	pix := make([]byte, row*h)
	for y := 0; y < h; y++ {
		off := start + y*img.Stride
		copy(pix[y*row:(y+1)*row], img.Pix[off:off+row])
	}
	return SourceImage{Pix: pix, Width: w, Height: h}
}
