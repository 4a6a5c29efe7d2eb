package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/maruel/natural"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"spritepack2d/rectpack"
)

// imageExts 是输入目录中会被读取的图片扩展名
var imageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// sprite 是一张已解码、可能已裁切的输入图片
type sprite struct {
	Name string
	// SourceSize 是原图尺寸
	SourceSize rectpack.Size
	// SourceRect 是 Image 在原图中的区域，未裁切时等于原图边界
	SourceRect image.Rectangle
	// Image 是紧密排列、原点为 (0,0) 的像素数据
	Image *image.NRGBA
}

// Trimmed 判断是否进行了裁剪
func (s *sprite) Trimmed() bool {
	return s.SourceRect.Min.X > 0 || s.SourceRect.Min.Y > 0 ||
		s.SourceRect.Dx() < s.SourceSize.Width || s.SourceRect.Dy() < s.SourceSize.Height
}

func (s *sprite) Size() rectpack.Size {
	b := s.Image.Bounds()
	return rectpack.NewSize(b.Dx(), b.Dy())
}

// GetImageBBox 检测图像的透明区域，返回 alpha 大于阈值的像素的边界
func GetImageBBox(img *image.NRGBA, alphaThreshold uint8) image.Rectangle {
	bounds := img.Bounds()
	if bounds.Empty() {
		return image.Rectangle{}
	}
	minX, minY := bounds.Max.X, bounds.Max.Y
	maxX, maxY := bounds.Min.X, bounds.Min.Y
	found := false
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		i := img.PixOffset(bounds.Min.X, y)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if img.Pix[i+3] > alphaThreshold {
				found = true
				minX = min(minX, x)
				minY = min(minY, y)
				maxX = max(maxX, x)
				maxY = max(maxY, y)
			}
			i += 4
		}
	}
	if !found {
		return bounds // 图像完全透明
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// listImageFiles 返回目录中的所有图片文件
func listImageFiles(dir string, naturalSort bool) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("输入目录 %s 不存在: %w", dir, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if slices.Contains(imageExts, strings.ToLower(filepath.Ext(entry.Name()))) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("输入目录 %s 中没有找到任何图片文件", dir)
	}
	if naturalSort {
		sort.Sort(natural.StringSlice(paths))
	}
	return paths, nil
}

// loadSprites 并行解码所有图片，结果与 paths 顺序一致
func loadSprites(ctx context.Context, paths []string, trim bool, threshold uint8) ([]sprite, error) {
	sprites := make([]sprite, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := loadSprite(path, trim, threshold)
			if err != nil {
				return err
			}
			sprites[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sprites, nil
}

func loadSprite(path string, trim bool, threshold uint8) (sprite, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return sprite{}, fmt.Errorf("无法解码图片 %s: %w", path, err)
	}
	img := imaging.Clone(src)
	bounds := img.Bounds()
	s := sprite{
		Name:       filepath.Base(path),
		SourceSize: rectpack.NewSize(bounds.Dx(), bounds.Dy()),
		SourceRect: bounds,
		Image:      img,
	}
	if trim {
		s.SourceRect = GetImageBBox(img, threshold)
		if s.SourceRect != bounds {
			s.Image = imaging.Crop(img, s.SourceRect)
		}
	}
	return s, nil
}

// orderSprites 按 order 对图片稳定排序，order 为空或 none 时保持原顺序
func orderSprites(sprites []sprite, order string) error {
	compare, err := rectpack.ResolveSort(order)
	if err != nil || compare == nil {
		return err
	}
	slices.SortStableFunc(sprites, func(a, b sprite) int {
		return compare(a.Size(), b.Size())
	})
	return nil
}

// packSprites 把所有图片打包进一个图集
func packSprites(sprites []sprite, maxSize, padding int) (*rectpack.Atlas, error) {
	images := make([]rectpack.SourceImage, len(sprites))
	for i := range sprites {
		images[i] = rectpack.NewSourceImage(sprites[i].Image)
	}
	packer := rectpack.Packer{MaxSize: maxSize, Padding: padding}
	return packer.Pack(images)
}

// saveAtlas 按扩展名编码并保存图集图像
func saveAtlas(path string, atlas *rectpack.Atlas) error {
	if err := imaging.Save(atlas.Image(), path); err != nil {
		return fmt.Errorf("保存图集 %s 失败: %w", path, err)
	}
	return nil
}
