package rectpack

import "fmt"

// Point 描述了二维空间中的一个位置。
type Point struct {
	// X 是在水平 x 轴上的位置。
	X int `json:"x"`
	// Y 是在垂直 y 轴上的位置。
	Y int `json:"y"`
}

// NewPoint 初始化一个具有指定坐标的新点。
func NewPoint(x, y int) Point {
	return Point{X: x, Y: y}
}

// String 返回点的字符串表示形式。
func (p Point) String() string {
	return fmt.Sprintf("[%v, %v]", p.X, p.Y)
}

// Size 描述了二维空间中实体的尺寸。
type Size struct {
	// Width 是在水平 x 轴上的尺寸。
	Width int `json:"w"`
	// Height 是在垂直 y 轴上的尺寸。
	Height int `json:"h"`
}

// NewSize 创建具有指定尺寸的新尺寸对象。
func NewSize(width, height int) Size {
	return Size{Width: width, Height: height}
}

// String 返回尺寸的字符串表示形式。
func (sz Size) String() string {
	return fmt.Sprintf("%vx%v", sz.Width, sz.Height)
}

// Area 返回总面积（宽度 * 高度）。
func (sz Size) Area() int {
	return sz.Width * sz.Height
}

// Perimeter 返回所有边的总长度。
func (sz Size) Perimeter() int {
	return (sz.Width + sz.Height) << 1
}

// MaxSide 返回较大边的值。
func (sz Size) MaxSide() int {
	return max(sz.Width, sz.Height)
}

// MinSide 返回较小边的值。
func (sz Size) MinSide() int {
	return min(sz.Width, sz.Height)
}

// Ratio 计算宽度与高度之间的比率。
func (sz Size) Ratio() float64 {
	return float64(sz.Width) / float64(sz.Height)
}

// Rect 描述了二维空间中的一个位置（左上角）和尺寸。
type Rect struct {
	Point
	Size
}

// NewRect 初始化一个使用指定点和尺寸值的新矩形。
func NewRect(x, y, w, h int) Rect {
	return Rect{
		Point: Point{X: x, Y: y},
		Size:  Size{Width: w, Height: h},
	}
}

// String 返回描述矩形的字符串。
func (r Rect) String() string {
	return fmt.Sprintf("[%v, %v, %v, %v]", r.X, r.Y, r.Width, r.Height)
}

// Right 返回矩形右边缘在 x 轴上的坐标。
func (r Rect) Right() int {
	return r.X + r.Width
}

// Bottom 返回矩形下边缘在 y 轴上的坐标。
func (r Rect) Bottom() int {
	return r.Y + r.Height
}

// ContainsRect 测试指定的矩形是否包含在当前接收者的边界内。
func (r Rect) ContainsRect(rect Rect) bool {
	return r.X <= rect.X &&
		rect.Right() <= r.Right() &&
		r.Y <= rect.Y &&
		rect.Bottom() <= r.Bottom()
}

// IsEmpty 测试矩形的宽度或高度是否小于1。
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Intersects 测试接收者是否与指定的矩形有任何重叠。
func (r Rect) Intersects(rect Rect) bool {
	return rect.X < r.Right() &&
		r.X < rect.Right() &&
		rect.Y < r.Bottom() &&
		r.Y < rect.Bottom()
}

// abs 返回整数的绝对值
func abs(x int) int {
	if x >= 0 {
		return x
	}
	return -x
}
