package main

import (
	"fmt"
	"image"
	"image/color"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
)

// unpack 把图集拆回单独的图片，裁剪过的图片会还原到原始尺寸
func unpack(jsonPath, outputDir string) error {
	data, err := readAtlasData(jsonPath)
	if err != nil {
		return err
	}
	atlasImagePath := filepath.Join(filepath.Dir(jsonPath), data.Image)
	atlasImg, err := imaging.Open(atlasImagePath)
	if err != nil {
		return fmt.Errorf("打开图集图片失败: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	for _, name := range slices.Sorted(maps.Keys(data.Sprites)) {
		s := data.Sprites[name]
		r := s.Region
		subImg := imaging.Crop(atlasImg, image.Rect(r.X, r.Y, r.Right(), r.Bottom()))
		if s.Trimmed && s.SourceRect != nil {
			full := imaging.New(s.SourceSize.Width, s.SourceSize.Height, color.NRGBA{})
			subImg = imaging.Paste(full, subImg, image.Pt(s.SourceRect.X, s.SourceRect.Y))
		}

		outputPath := filepath.Join(outputDir, filepath.Base(name))
		if _, err := imaging.FormatFromFilename(outputPath); err != nil {
			outputPath = strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".png"
		}
		if err := imaging.Save(subImg, outputPath); err != nil {
			return fmt.Errorf("保存 %s 失败: %w", outputPath, err)
		}
		logger().Debug("解包", "sprite", name, "region", r.String(), "output", outputPath)
	}
	logger().Info("图集解包完成", "sprites", len(data.Sprites), "output", outputDir)
	return nil
}
