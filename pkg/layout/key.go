package layout

import "fmt"

// Category classifies an addressable element.
type Category uint8

const (
	// CategoryCell is a regular item.
	CategoryCell Category = iota
	// CategorySupplementary is a header or footer.
	CategorySupplementary
	// CategoryDecoration is a separator or gutter synthesized by the composite.
	CategoryDecoration
)

func (c Category) String() string {
	switch c {
	case CategoryCell:
		return "cell"
	case CategorySupplementary:
		return "supplementary"
	case CategoryDecoration:
		return "decoration"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// Kind tags supplementary and decoration elements.
type Kind string

// Element kinds.
const (
	KindHeader       Kind = "header"
	KindFooter       Kind = "footer"
	KindSeparator    Kind = "separator"
	KindTopGutter    Kind = "top-gutter"
	KindBottomGutter Kind = "bottom-gutter"
)

// ItemKey identifies one element of the layout. It is comparable and used
// both as a lookup key and as a change-set member.
type ItemKey struct {
	Section  int
	Item     int
	Category Category
	Kind     Kind
}

// CellKey returns the key of item in section.
func CellKey(section, item int) ItemKey {
	return ItemKey{Section: section, Item: item, Category: CategoryCell}
}

// HeaderKey returns the key of a section's header.
func HeaderKey(section int) ItemKey {
	return ItemKey{Section: section, Category: CategorySupplementary, Kind: KindHeader}
}

// FooterKey returns the key of a section's footer.
func FooterKey(section int) ItemKey {
	return ItemKey{Section: section, Category: CategorySupplementary, Kind: KindFooter}
}

// SeparatorKey returns the key of the separator drawn under item.
func SeparatorKey(section, item int) ItemKey {
	return ItemKey{Section: section, Item: item, Category: CategoryDecoration, Kind: KindSeparator}
}

// GutterKey returns the key of a section's top or bottom gutter.
func GutterKey(section int, kind Kind) ItemKey {
	return ItemKey{Section: section, Category: CategoryDecoration, Kind: kind}
}

// IsHeader reports whether k addresses a header.
func (k ItemKey) IsHeader() bool { return k.Category == CategorySupplementary && k.Kind == KindHeader }

// IsFooter reports whether k addresses a footer.
func (k ItemKey) IsFooter() bool { return k.Category == CategorySupplementary && k.Kind == KindFooter }

func (k ItemKey) String() string {
	switch k.Category {
	case CategoryCell:
		return fmt.Sprintf("cell[%d:%d]", k.Section, k.Item)
	case CategorySupplementary:
		return fmt.Sprintf("%s[%d]", k.Kind, k.Section)
	default:
		if k.Kind == KindSeparator {
			return fmt.Sprintf("%s[%d:%d]", k.Kind, k.Section, k.Item)
		}
		return fmt.Sprintf("%s[%d]", k.Kind, k.Section)
	}
}
