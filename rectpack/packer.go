package rectpack

import (
	"fmt"
	"math/bits"
)

// DefaultSize 定义了图集边长的默认上限
// 基于现代GPU的最大纹理尺寸。如果这个库不是用于创建纹理图集，
// 那么这个值除了提供一个合理的起点外没有特殊意义。
const DefaultSize = 4096

// MaxDimension 是单张图片(含间距)边长的上限，保证像素数和图集边长的计算不会溢出
const MaxDimension = 1 << 30

// SourceImage 是待打包的输入图片。
// Pix 为行优先、无填充、每像素4字节的像素数据，长度必须是 Width*Height*4。
// 打包器只在合成阶段读取 Pix，不会修改或复制它。
type SourceImage struct {
	Pix    []byte
	Width  int
	Height int
}

// Size 返回图片尺寸
func (img SourceImage) Size() Size {
	return NewSize(img.Width, img.Height)
}

// PlacedImage 记录一张输入图片在图集中的位置
type PlacedImage struct {
	// Rect 的左上角是图片在图集中的偏移，尺寸与原图相同
	Rect
	// Index 是图片在输入序列中的下标
	Index int
	// Pix 引用原图的像素数据
	Pix []byte
}

// Atlas 是一次打包的结果
type Atlas struct {
	// Pix 是合成后的像素数据，长度为 Width*Height*4
	Pix    []byte
	Width  int
	Height int
	// Images 与输入顺序一致，每张输入图片对应一项
	Images []PlacedImage
}

// Packer 包含打包配置。Packer 本身不保存任何打包状态，
// 每次调用 Pack 都是独立的，可以在多个 goroutine 中并发使用。
type Packer struct {
	// MaxSize 是图集边长上限，0 表示不限制
	//
	// 默认值：0
	MaxSize int

	// Padding 定义每张图片右侧和下方预留的空隙大小。值为0或负数
	// 表示图片将被紧密排列
	//
	// 默认值：0
	Padding int
}

// NewPacker 创建一个图集边长不超过 maxSize 的打包器
//
// 注意:
//
//	maxSize 小于等于0会导致返回错误
func NewPacker(maxSize int) (*Packer, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("max size must be greater than 0 (given %v)", maxSize)
	}
	return &Packer{MaxSize: maxSize}, nil
}

// NewDefaultPacker 创建边长上限为 DefaultSize 的打包器
func NewDefaultPacker() *Packer {
	packer, _ := NewPacker(DefaultSize)
	return packer
}

// Pack 使用不限制尺寸的打包器打包 images
func Pack(images []SourceImage) (*Atlas, error) {
	var p Packer
	return p.Pack(images)
}

// Layout 使用不限制尺寸的打包器计算布局
func Layout(sizes []Size) (int, []Point, error) {
	var p Packer
	return p.Layout(sizes)
}

// Pack 按输入顺序把 images 放入一个边长为2的幂的正方形图集，并合成像素。
// 失败时不返回任何部分结果。
func (p *Packer) Pack(images []SourceImage) (*Atlas, error) {
	if len(images) == 0 {
		return nil, &PackingError{Err: ErrEmptyInput, Index: -1}
	}
	sizes := make([]Size, len(images))
	for i, img := range images {
		if img.Width > MaxDimension || img.Height > MaxDimension ||
			len(img.Pix) != img.Width*img.Height*4 {
			return nil, &PackingError{Err: ErrInvalidImage, Index: i, Width: img.Width, Height: img.Height}
		}
		sizes[i] = img.Size()
	}

	side, offsets, err := p.Layout(sizes)
	if err != nil {
		return nil, err
	}

	atlas := &Atlas{
		Width:  side,
		Height: side,
		Images: make([]PlacedImage, len(images)),
	}
	for i, img := range images {
		atlas.Images[i] = PlacedImage{
			Rect:  Rect{Point: offsets[i], Size: sizes[i]},
			Index: i,
			Pix:   img.Pix,
		}
	}
	atlas.compose()
	return atlas, nil
}

// Layout 只计算布局不合成像素，返回图集边长和每个尺寸的偏移(与输入顺序一致)
func (p *Packer) Layout(sizes []Size) (int, []Point, error) {
	if len(sizes) == 0 {
		return 0, nil, &PackingError{Err: ErrEmptyInput, Index: -1}
	}
	padded := make([]Size, len(sizes))
	for i, sz := range sizes {
		padded[i] = p.pad(sz)
		if sz.Width < 1 || sz.Height < 1 || p.Padding > MaxDimension ||
			padded[i].Width > MaxDimension || padded[i].Height > MaxDimension {
			return 0, nil, &PackingError{Err: ErrInvalidImage, Index: i, Width: sz.Width, Height: sz.Height}
		}
	}

	first := sizes[0]
	initial := nextPowerOfTwo(padded[0].MaxSide())
	if p.exceeds(initial) {
		return 0, nil, &PackingError{Err: ErrUnfittableRectangle, Index: 0, Width: first.Width, Height: first.Height}
	}

	size := atlasSize{width: initial, height: initial}
	var tree SlotTree
	tree.AddRoot(NewRect(0, 0, initial, initial))

	offsets := make([]Point, len(sizes))
	for i, sz := range padded {
		id := tree.FindFirst(tree.Roots(), sz.Width, sz.Height)
		if id == NoSlot {
			next := size.next(sz)
			// 边长溢出时 next 会回绕成不大于当前边长的值
			if next <= size.width || p.exceeds(next) {
				return 0, nil, size.unfittable(i, sizes[i])
			}
			id = size.grow(&tree, next, sz)
		}
		if id == NoSlot {
			return 0, nil, size.unfittable(i, sizes[i])
		}
		offsets[i] = tree.Slot(id).Point
		tree.Split(id, sz.Width, sz.Height)
	}
	return size.width, offsets, nil
}

// pad 在尺寸上加上间距
func (p *Packer) pad(sz Size) Size {
	if p.Padding <= 0 {
		return sz
	}
	return NewSize(sz.Width+p.Padding, sz.Height+p.Padding)
}

func (p *Packer) exceeds(side int) bool {
	return p.MaxSize > 0 && side > p.MaxSize
}

// atlasSize 是打包循环中唯一跨步骤的状态，显式地在循环中传递
type atlasSize struct {
	width  int
	height int
}

// next 计算容纳 sz 所需的新边长：在能放下新图片的方向上扩展，
// 再取2的幂，并保持正方形
func (a *atlasSize) next(sz Size) int {
	return nextPowerOfTwo(max(
		nextPowerOfTwo(a.width+sz.Width),
		nextPowerOfTwo(a.height+sz.Height),
	))
}

// grow 把图集扩展到 side，追加右侧槽位A和底部槽位B两个根级槽位，
// 并依次检查A、B能否直接放下 sz(不做递归查找)。
// 无论能否放下，图集尺寸都会更新。
func (a *atlasSize) grow(tree *SlotTree, side int, sz Size) int {
	right := tree.AddRoot(NewRect(a.width, 0, side-a.width, a.height))
	bottom := tree.AddRoot(NewRect(0, a.height, side, side-a.height))
	a.width, a.height = side, side

	switch {
	case tree.CanFit(right, sz.Width, sz.Height):
		return right
	case tree.CanFit(bottom, sz.Width, sz.Height):
		return bottom
	}
	return NoSlot
}

func (a *atlasSize) unfittable(index int, sz Size) error {
	return &PackingError{
		Err:       ErrUnfittableRectangle,
		Index:     index,
		Width:     sz.Width,
		Height:    sz.Height,
		AtlasSize: a.width,
	}
}

// nextPowerOfTwo 返回不小于 n 的最小的2的幂，n 必须大于0
func nextPowerOfTwo(n int) int {
	return 1 << bits.Len(uint(n-1))
}
