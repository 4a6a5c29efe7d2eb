package rectpack

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// patternImage 生成由 seed 决定像素内容的图片，合成后可以区分不同的图片
func patternImage(w, h int, seed byte) SourceImage {
	pix := make([]byte, w*h*4)
	for i := range pix {
		pix[i] = seed + byte(i*7)
	}
	return SourceImage{Pix: pix, Width: w, Height: h}
}

// randomImages 生成 count 张边长在 [minSide, maxSide] 之间的图片
func randomImages(rng *rand.Rand, count, minSide, maxSide int) []SourceImage {
	images := make([]SourceImage, count)
	for i := range images {
		w := rng.Intn(maxSide-minSide+1) + minSide
		h := rng.Intn(maxSide-minSide+1) + minSide
		images[i] = patternImage(w, h, byte(i))
	}
	return images
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct{ in, want int }{
		{1, 1}, {2, 2}, {3, 4}, {4, 4}, {5, 8}, {16, 16}, {17, 32},
		{100, 128}, {128, 128}, {129, 256}, {4095, 4096}, {4097, 8192},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nextPowerOfTwo(tt.in), "nextPowerOfTwo(%d)", tt.in)
	}
}

func TestPack_SingleImage(t *testing.T) {
	atlas, err := Pack([]SourceImage{patternImage(16, 16, 1)})
	require.NoError(t, err)

	assert.Equal(t, 16, atlas.Width)
	assert.Equal(t, 16, atlas.Height)
	require.Len(t, atlas.Images, 1)
	assert.Equal(t, NewPoint(0, 0), atlas.Images[0].Point)
	assert.Len(t, atlas.Pix, 16*16*4)
	assert.InDelta(t, 1.0, atlas.Used(), 1e-9)
}

func TestPack_TwoImagesGrowRight(t *testing.T) {
	atlas, err := Pack([]SourceImage{patternImage(16, 16, 1), patternImage(16, 16, 2)})
	require.NoError(t, err)

	assert.Equal(t, 32, atlas.Width)
	assert.Equal(t, 32, atlas.Height)
	assert.Equal(t, NewPoint(0, 0), atlas.Images[0].Point)
	assert.Equal(t, NewPoint(16, 0), atlas.Images[1].Point, "right growth slot is checked first")
}

func TestPack_GrowsForLargeSecondImage(t *testing.T) {
	atlas, err := Pack([]SourceImage{patternImage(1, 1, 1), patternImage(100, 100, 2)})
	require.NoError(t, err)

	assert.Equal(t, 128, atlas.Width)
	assert.Equal(t, NewPoint(0, 0), atlas.Images[0].Point)
	assert.Equal(t, NewPoint(0, 1), atlas.Images[1].Point)
	assert.False(t, atlas.Images[0].Intersects(atlas.Images[1].Rect))
}

func TestLayout_GrowBottomWhenRightTooShort(t *testing.T) {
	side, offsets, err := Layout([]Size{{16, 16}, {8, 32}})
	require.NoError(t, err)

	// max(np2(16+8), np2(16+32)) = 64，右侧槽位A只有16高
	assert.Equal(t, 64, side)
	assert.Equal(t, []Point{{0, 0}, {0, 16}}, offsets)
}

func TestLayout_OldRootsSearchedAfterGrowth(t *testing.T) {
	side, offsets, err := Layout([]Size{{16, 16}, {16, 16}, {16, 16}, {16, 16}})
	require.NoError(t, err)

	assert.Equal(t, 32, side)
	assert.Equal(t, []Point{{0, 0}, {16, 0}, {0, 16}, {16, 16}}, offsets)
}

func TestLayout_LeftoverSpaceReused(t *testing.T) {
	side, offsets, err := Layout([]Size{{10, 4}, {3, 3}, {16, 12}})
	require.NoError(t, err)

	assert.Equal(t, 16, side)
	assert.Equal(t, []Point{{0, 0}, {10, 0}, {0, 4}}, offsets)
}

func TestPack_EmptyInput(t *testing.T) {
	atlas, err := Pack(nil)
	assert.Nil(t, atlas)
	require.ErrorIs(t, err, ErrEmptyInput)

	_, _, err = Layout([]Size{})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestPack_InvalidImage(t *testing.T) {
	tests := []struct {
		name  string
		image SourceImage
	}{
		{"zero width", SourceImage{Width: 0, Height: 4}},
		{"short buffer", SourceImage{Pix: make([]byte, 10), Width: 2, Height: 2}},
		{"long buffer", SourceImage{Pix: make([]byte, 20), Width: 2, Height: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			atlas, err := Pack([]SourceImage{patternImage(4, 4, 0), tt.image})
			assert.Nil(t, atlas)
			require.ErrorIs(t, err, ErrInvalidImage)

			var pe *PackingError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, 1, pe.Index)
		})
	}
}

func TestPacker_MaxSize(t *testing.T) {
	p, err := NewPacker(32)
	require.NoError(t, err)

	_, err = p.Pack([]SourceImage{patternImage(33, 1, 0)})
	require.ErrorIs(t, err, ErrUnfittableRectangle)

	images := []SourceImage{patternImage(32, 32, 0), patternImage(1, 1, 1)}
	atlas, err := p.Pack(images)
	assert.Nil(t, atlas)
	require.ErrorIs(t, err, ErrUnfittableRectangle)

	var pe *PackingError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Index)
	assert.Equal(t, 1, pe.Width)
	assert.Equal(t, 32, pe.AtlasSize)
	assert.Contains(t, pe.Error(), "image #1 (1x1)")

	// 不限制尺寸时同样的输入扩展到 64
	atlas, err = Pack(images)
	require.NoError(t, err)
	assert.Equal(t, 64, atlas.Width)
}

func TestNewPacker(t *testing.T) {
	_, err := NewPacker(0)
	assert.Error(t, err)

	assert.Equal(t, DefaultSize, NewDefaultPacker().MaxSize)
}

func TestPack_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 20; round++ {
		images := randomImages(rng, 1+rng.Intn(60), 1, 48)

		atlas, err := Pack(images)
		require.NoError(t, err)

		assert.True(t, isPowerOfTwo(atlas.Width), "width %d", atlas.Width)
		assert.Equal(t, atlas.Width, atlas.Height)
		require.Len(t, atlas.Images, len(images))
		require.Len(t, atlas.Pix, atlas.Width*atlas.Height*4)

		bounds := NewRect(0, 0, atlas.Width, atlas.Height)
		for i, placed := range atlas.Images {
			assert.Equal(t, i, placed.Index)
			assert.Equal(t, images[i].Size(), placed.Size)
			assert.True(t, bounds.ContainsRect(placed.Rect), "%v outside atlas", placed.Rect)
			for j := i + 1; j < len(atlas.Images); j++ {
				assert.False(t, placed.Intersects(atlas.Images[j].Rect),
					"%v and %v overlap", placed.Rect, atlas.Images[j].Rect)
			}
		}
		assertPixels(t, atlas, images)
	}
}

// assertPixels 检查每张原图的像素都被复制到了图集中对应的偏移处
func assertPixels(t *testing.T, atlas *Atlas, images []SourceImage) {
	t.Helper()
	for i, placed := range atlas.Images {
		src := images[i]
		for iy := 0; iy < src.Height; iy++ {
			for ix := 0; ix < src.Width; ix++ {
				s := (iy*src.Width + ix) * 4
				d := ((placed.Y+iy)*atlas.Width + placed.X + ix) * 4
				if !assert.Equal(t, src.Pix[s:s+4], atlas.Pix[d:d+4], "image %d pixel (%d,%d)", i, ix, iy) {
					return
				}
			}
		}
	}
}

func TestPack_Deterministic(t *testing.T) {
	images := randomImages(rand.New(rand.NewSource(7)), 80, 1, 64)

	a, err := Pack(images)
	require.NoError(t, err)
	b, err := Pack(images)
	require.NoError(t, err)

	assert.Equal(t, a.Width, b.Width)
	assert.Equal(t, a.Images, b.Images)
	assert.Equal(t, a.Pix, b.Pix)
}

func TestLayout_MonotonicGrowth(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	sizes := make([]Size, 100)
	for i := range sizes {
		sizes[i] = NewSize(rng.Intn(40)+1, rng.Intn(40)+1)
	}

	prev := 0
	for n := 1; n <= len(sizes); n++ {
		side, _, err := Layout(sizes[:n])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, side, prev, "atlas shrank after %d images", n)
		prev = side
	}
}

func TestPack_EmptyAreaIsZero(t *testing.T) {
	atlas, err := Pack([]SourceImage{patternImage(3, 5, 200)})
	require.NoError(t, err)

	// 8x8 图集中的 3x5 图片：x>=3 或 y>=5 的区域保持为零
	for y := 0; y < atlas.Height; y++ {
		for x := 0; x < atlas.Width; x++ {
			if x < 3 && y < 5 {
				continue
			}
			i := (y*atlas.Width + x) * 4
			assert.Equal(t, []byte{0, 0, 0, 0}, atlas.Pix[i:i+4], "(%d,%d)", x, y)
		}
	}
}

func TestPackingError_Unwrap(t *testing.T) {
	err := error(&PackingError{Err: ErrEmptyInput, Index: -1})
	assert.True(t, errors.Is(err, ErrEmptyInput))
	assert.False(t, errors.Is(err, ErrUnfittableRectangle))
	assert.Equal(t, ErrEmptyInput.Error(), err.Error())
}

func TestPacker_Padding(t *testing.T) {
	p := Packer{Padding: 2}
	images := []SourceImage{patternImage(16, 16, 1), patternImage(16, 16, 2)}

	atlas, err := p.Pack(images)
	require.NoError(t, err)

	// 18x18 开始于 32x32，第二张放不下底部剩余 (32x14)，扩展到 64
	assert.Equal(t, 64, atlas.Width)
	assert.Equal(t, NewPoint(0, 0), atlas.Images[0].Point)
	assert.Equal(t, NewPoint(32, 0), atlas.Images[1].Point)
	assert.Equal(t, NewSize(16, 16), atlas.Images[1].Size, "placed size excludes padding")
	assertPixels(t, atlas, images)

	// 间距区域保持为零
	i := (0*atlas.Width + 16) * 4
	assert.Equal(t, []byte{0, 0, 0, 0}, atlas.Pix[i:i+4])

	// 负数间距等同于紧密排列
	side, offsets, err := (&Packer{Padding: -3}).Layout([]Size{{16, 16}, {16, 16}})
	require.NoError(t, err)
	assert.Equal(t, 32, side)
	assert.Equal(t, []Point{{0, 0}, {16, 0}}, offsets)
}

func TestPack_OversizedImage(t *testing.T) {
	// 1<<31 * 1<<31 * 4 会回绕成 0，空缓冲区不能通过校验
	atlas, err := Pack([]SourceImage{{Width: 1 << 31, Height: 1 << 31}})
	assert.Nil(t, atlas)
	require.ErrorIs(t, err, ErrInvalidImage)

	_, _, err = Layout([]Size{{MaxDimension + 1, 1}})
	require.ErrorIs(t, err, ErrInvalidImage)

	// 加上间距后超过上限
	_, _, err = (&Packer{Padding: 1}).Layout([]Size{{MaxDimension, 1}})
	require.ErrorIs(t, err, ErrInvalidImage)

	_, _, err = (&Packer{Padding: math.MaxInt}).Layout([]Size{{1, 1}})
	require.ErrorIs(t, err, ErrInvalidImage)

	side, _, err := Layout([]Size{{MaxDimension, 1}})
	require.NoError(t, err)
	assert.Equal(t, MaxDimension, side)
}

func TestAtlasSize_NextWrapsOnOverflow(t *testing.T) {
	half := math.MaxInt/2 + 1
	size := atlasSize{width: half, height: half}
	assert.LessOrEqual(t, size.next(NewSize(1, 1)), size.width)
}
