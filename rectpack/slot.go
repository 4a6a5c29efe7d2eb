package rectpack

// NoSlot 表示查找失败时返回的槽位ID
const NoSlot = -1

// Slot 是空闲空间树中的一个节点。
//
// 已分配(Allocated)的槽位并不是死节点：分配后剩余的空间以子槽位的形式
// 挂在它下面，查找时会继续向下搜索。已分配且没有子槽位的槽位表示完全占满。
type Slot struct {
	Rect
	// Allocated 表示该槽位内已经放置过一个矩形
	Allocated bool

	// 子槽位在 SlotTree.slots 中的下标区间 [first, first+count)
	first int
	count int
}

// Children 返回子槽位的ID区间 [first, first+count)
func (s Slot) Children() (first, count int) {
	return s.first, s.count
}

// SlotTree 以下标寻址的方式保存空闲空间树，所有节点存放在同一个切片中。
// Split 会一次性追加一个槽位的全部子槽位，因此子槽位总是连续的。
type SlotTree struct {
	slots []Slot
	roots []int
}

// AddRoot 追加一个根级槽位并返回其ID
func (t *SlotTree) AddRoot(r Rect) int {
	id := t.add(r)
	t.roots = append(t.roots, id)
	return id
}

func (t *SlotTree) add(r Rect) int {
	t.slots = append(t.slots, Slot{Rect: r})
	return len(t.slots) - 1
}

// Slot 返回指定ID的槽位副本
func (t *SlotTree) Slot(id int) Slot {
	return t.slots[id]
}

// Roots 返回根级槽位ID，按添加顺序排列(由内部管理，如需修改请复制)
func (t *SlotTree) Roots() []int {
	return t.roots
}

// Len 返回树中槽位的总数
func (t *SlotTree) Len() int {
	return len(t.slots)
}

// CanFit 判断 w*h 的矩形能否放入槽位，尺寸恰好相等也算放得下
func (t *SlotTree) CanFit(id, w, h int) bool {
	s := &t.slots[id]
	return w <= s.Width && h <= s.Height
}

// Find 在以 id 为根的子树中查找第一个能容纳 w*h 的未分配槽位。
// 首次适配，不做最佳适配。找不到时返回 NoSlot。
func (t *SlotTree) Find(id, w, h int) int {
	if !t.CanFit(id, w, h) {
		return NoSlot
	}
	s := t.slots[id]
	if !s.Allocated {
		return id
	}
	for child := s.first; child < s.first+s.count; child++ {
		if found := t.Find(child, w, h); found != NoSlot {
			return found
		}
	}
	return NoSlot
}

// FindFirst 按顺序在 ids 中查找，返回第一个 Find 成功的结果
func (t *SlotTree) FindFirst(ids []int, w, h int) int {
	for _, id := range ids {
		if found := t.Find(id, w, h); found != NoSlot {
			return found
		}
	}
	return NoSlot
}

// Split 在槽位左上角放置 w*h 的矩形后切分剩余空间(断头台切分)。
//
// 右侧剩余 (x+w, y, W-w, h) 先于底部剩余 (x, y+h, W, H-h) 追加，
// 底部剩余横跨原槽位的整个宽度。两个方向都恰好相等时不产生子槽位。
func (t *SlotTree) Split(id, w, h int) {
	s := t.slots[id]
	first := len(t.slots)
	if s.Width != w {
		t.add(NewRect(s.X+w, s.Y, s.Width-w, h))
	}
	if s.Height != h {
		t.add(NewRect(s.X, s.Y+h, s.Width, s.Height-h))
	}
	// add 可能扩容切片，必须在追加之后再写回
	parent := &t.slots[id]
	parent.Allocated = true
	parent.first = first
	parent.count = len(t.slots) - first
}
