package rectpack

import (
	"errors"
	"fmt"
)

// rectpack 包的哨兵错误
var (
	// ErrEmptyInput 表示没有可打包的图片
	ErrEmptyInput = errors.New("rectpack: no images to pack")

	// ErrUnfittableRectangle 表示图集为某张图片扩展一次后仍然放不下它，
	// 或者扩展后的边长超过了 MaxSize
	ErrUnfittableRectangle = errors.New("rectpack: image does not fit in atlas")

	// ErrInvalidImage 表示图片宽高不是正数、(含间距)超过 MaxDimension，
	// 或像素数据长度不等于 width*height*4
	ErrInvalidImage = errors.New("rectpack: invalid source image")
)

// PackingError 描述打包失败的原因，Unwrap 返回上面的哨兵错误之一，
// 可以用 errors.Is 判断类型，用 errors.As 读取上下文。
type PackingError struct {
	Err error

	// Index 是出错图片在输入中的下标，与具体图片无关时为 -1
	Index int
	// 出错图片的宽高
	Width  int
	Height int
	// AtlasSize 是失败时的图集边长
	AtlasSize int
}

func (e *PackingError) Error() string {
	if e.Index < 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: image #%d (%dx%d), atlas %dx%d",
		e.Err, e.Index, e.Width, e.Height, e.AtlasSize, e.AtlasSize)
}

func (e *PackingError) Unwrap() error {
	return e.Err
}
