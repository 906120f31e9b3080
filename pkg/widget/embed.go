package widget

import "embed"

//go:embed base/less/mixins.less base/tpl/posts-selector/*.html
var baseFiles embed.FS

// BaseMixins returns the shared LESS mixins that style templates import
// with `@import "../base/less/mixins";`.
func BaseMixins() string {
	data, err := baseFiles.ReadFile("base/less/mixins.less")
	if err != nil {
		return ""
	}
	return string(data)
}
