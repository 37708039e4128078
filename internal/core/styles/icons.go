package styles

var (
	IconCheck   = "✓"
	IconCross   = "✗"
	IconWarning = "!"
	IconBranch  = "⎇"
	IconFile    = "•"
	IconArrow   = "→"
)
