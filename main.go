package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"spritepack2d/rectpack"
)

const (
	VERSION = "0.2.0"

	atlasImageName = "atlas.png"
	atlasDataName  = "atlas.json"
)

// DebugInfo 记录各阶段耗时
type DebugInfo struct {
	TotalTime            time.Duration
	LoadImageTime        time.Duration
	PackTime             time.Duration
	CreateAtlasImageTime time.Duration
	CreateJsonTime       time.Duration
}

// timed 执行 fn 并把耗时累加到 d
func timed(d *time.Duration, fn func() error) error {
	start := time.Now()
	defer func() {
		*d += time.Since(start)
	}()
	return fn()
}

// build 读取输入目录中的图片，生成图集图像和元数据
func build(ctx context.Context, options *Options) error {
	var debugInfo DebugInfo
	defer func(start time.Time) {
		debugInfo.TotalTime = time.Since(start)
		logger().Debug("耗时",
			"load", debugInfo.LoadImageTime,
			"pack", debugInfo.PackTime,
			"image", debugInfo.CreateAtlasImageTime,
			"json", debugInfo.CreateJsonTime,
			"total", debugInfo.TotalTime,
		)
	}(time.Now())

	paths, err := listImageFiles(options.InputDir, options.IsFilesSort)
	if err != nil {
		return err
	}
	logger().Info("找到图片文件", "count", len(paths), "trim", options.IsTrimTransparent)

	var sprites []sprite
	err = timed(&debugInfo.LoadImageTime, func() error {
		sprites, err = loadSprites(ctx, paths, options.IsTrimTransparent, uint8(options.TransparencyThreshold))
		return err
	})
	if err != nil {
		return err
	}
	if err := orderSprites(sprites, options.Order); err != nil {
		return err
	}

	var atlas *rectpack.Atlas
	err = timed(&debugInfo.PackTime, func() error {
		atlas, err = packSprites(sprites, options.MaxSize, options.SpritePadding)
		return err
	})
	if err != nil {
		return fmt.Errorf("打包失败: %w", err)
	}
	outputResult(atlas)

	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	err = timed(&debugInfo.CreateAtlasImageTime, func() error {
		return saveAtlas(filepath.Join(options.OutputDir, atlasImageName), atlas)
	})
	if err != nil {
		return err
	}

	dataPath := filepath.Join(options.OutputDir, atlasDataName)
	err = timed(&debugInfo.CreateJsonTime, func() error {
		return writeAtlasData(dataPath, newAtlasData(atlas, sprites, atlasImageName, time.Now()))
	})
	if err != nil {
		return fmt.Errorf("生成JSON元数据失败: %w", err)
	}
	logger().Info("图集元数据", "path", dataPath)
	return nil
}

// outputResult 输出打包结果
func outputResult(atlas *rectpack.Atlas) {
	logger().Info("打包完成",
		"size", fmt.Sprintf("%dx%d", atlas.Width, atlas.Height),
		"used", fmt.Sprintf("%.2f%%", atlas.Used()*100),
		"sprites", len(atlas.Images),
	)
}

func run(ctx context.Context, args []string) error {
	options, err := parseOptions(args)
	if err != nil {
		return err
	}
	setLogger(newLogger(options.Verbose))

	if options.UnpackPath != "" {
		return unpack(options.UnpackPath, options.OutputDir)
	}
	return build(ctx, &options)
}

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		if logger().Enabled(context.Background(), slog.LevelError) {
			logger().Error("失败", "err", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
