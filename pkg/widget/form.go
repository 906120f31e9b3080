package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-widgets/pkg/assets"
	"github.com/goliatone/go-widgets/pkg/render"
	"github.com/goliatone/go-widgets/pkg/request"
	"github.com/goliatone/go-widgets/pkg/sanitize"
	"github.com/goliatone/go-widgets/pkg/schema"
)

// Script and style handles of the shared admin assets.
const (
	AdminHandle         = "siteorigin-widget-admin"
	PostsSelectorHandle = "siteorigin-widget-admin-posts-selector"
	colorPickerHandle   = "wp-color-picker"
	mediaHandle         = "media-editor"
)

// Form renders the admin form of one placed widget. number is the host's
// instance number used in input names.
func (w *Widget) Form(ctx context.Context, scope *request.Scope, out io.Writer, number string, inst schema.Instance) error {
	if scope == nil {
		scope = request.FromContext(ctx)
	}
	if scope.Once("widget:form-assets:" + w.class) {
		w.enqueueAdmin(scope)
	}

	inst = w.modifyInstance(inst)
	formID := "siteorigin_widget_form_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	className := strings.ReplaceAll(strings.ToLower(w.class), "_", "-")

	session := w.env.renderer.NewSession(render.Namer{IDBase: w.idBase, Number: number})

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<div class="siteorigin-widget-form siteorigin-widget-form-main siteorigin-widget-form-main-%s" id="%s" data-class="%s">`,
		html.EscapeString(className), formID, html.EscapeString(w.class))
	if err := session.RenderFields(&buf, w.FormSchema(), inst); err != nil {
		return fmt.Errorf("widget: %s: render form: %w", w.idBase, err)
	}
	buf.WriteString(`</div>`)

	if w.help != "" {
		fmt.Fprintf(&buf, `<a href="%s" class="siteorigin-widget-help-link siteorigin-panels-help-link" target="_blank">Help</a>`,
			html.EscapeString(sanitize.EscapeURL(w.help)))
	}

	script, err := repeaterScript(w.class, formID, session.RepeaterHTML())
	if err != nil {
		return fmt.Errorf("widget: %s: %w", w.idBase, err)
	}
	buf.WriteString(script)

	_, err = out.Write(buf.Bytes())
	return err
}

func repeaterScript(class, formID string, repeaterHTML map[string]string) (string, error) {
	payload, err := json.Marshal(repeaterHTML)
	if err != nil {
		return "", fmt.Errorf("encode repeater html: %w", err)
	}
	key, err := json.Marshal(class)
	if err != nil {
		return "", fmt.Errorf("encode class: %w", err)
	}
	var b strings.Builder
	b.WriteString("<script type=\"text/javascript\">\n")
	b.WriteString("( function($){\n")
	b.WriteString("\tif(typeof window.sow_repeater_html == 'undefined') window.sow_repeater_html = {};\n")
	fmt.Fprintf(&b, "\twindow.sow_repeater_html[%s] = %s;\n", key, payload)
	b.WriteString("\tif(typeof $.fn.sowSetupForm != 'undefined') {\n")
	fmt.Fprintf(&b, "\t\t$('#%s').sowSetupForm();\n", formID)
	b.WriteString("\t}\n")
	b.WriteString("\tif( !$('#siteorigin-widget-admin-css').length && $.isReady ) {\n")
	b.WriteString("\t\talert('Please refresh this page to start using this widget.')\n")
	b.WriteString("\t}\n")
	b.WriteString("} )( jQuery );\n")
	b.WriteString("</script>")
	return b.String(), nil
}

func (w *Widget) enqueueAdmin(scope *request.Scope) {
	q := scope.Assets()
	env := w.env

	if !q.ScriptQueued(AdminHandle) {
		q.EnqueueStyle(assets.Style{Handle: colorPickerHandle})
		q.EnqueueStyle(assets.Style{
			Handle:  AdminHandle,
			Src:     env.AssetURL("base/css/admin.css"),
			Version: env.version,
			Deps:    []string{"media-views"},
		})
		q.EnqueueScript(assets.Script{Handle: colorPickerHandle})
		q.EnqueueScript(assets.Script{Handle: mediaHandle})
		q.EnqueueScript(assets.Script{
			Handle:   AdminHandle,
			Src:      env.AssetURL("base/js/admin.min.js"),
			Version:  env.version,
			Deps:     []string{"jquery", "jquery-ui-sortable", "editor"},
			InFooter: true,
			Localizations: []assets.Localization{{
				Object: "soWidgets",
				Data:   map[string]string{"sure": "Are you sure?"},
			}},
		})
	}

	if !q.ScriptQueued(PostsSelectorHandle) && w.FormSchema().HasType(schema.TypePosts) {
		q.EnqueueScript(assets.Script{
			Handle:   PostsSelectorHandle,
			Src:      env.AssetURL("base/js/posts-selector.min.js"),
			Version:  env.version,
			Deps:     []string{"jquery", "jquery-ui-sortable", "jquery-ui-autocomplete", "underscore", "backbone"},
			InFooter: true,
			Localizations: []assets.Localization{
				{Object: "sowPostsSelectorTpl", Data: postsSelectorTemplates(env)},
				{Object: "sowPostsSelectorVars", Data: map[string]string{"modalTitle": "Select Posts"}},
			},
		})
	}

	if enqueuer, ok := w.def.(AdminEnqueuer); ok {
		enqueuer.EnqueueAdmin(scope)
	}
}

func postsSelectorTemplates(env *Environment) map[string]any {
	read := func(name string) string {
		data, err := baseFiles.ReadFile("base/tpl/posts-selector/" + name)
		if err != nil {
			env.logger.Warnw("posts selector template missing", "template", name, "error", err)
			return ""
		}
		return string(data)
	}
	return map[string]any{
		"modal":       read("modal.html"),
		"postSummary": read("post.html"),
		"foundPosts":  `<div class="sow-post-count-message">This query returns <a href="#" class="preview-query-posts"><%= foundPosts %> posts</a>.</div>`,
		"fields":      PostSelectorFields(),
		"selector":    read("selector.html"),
	}
}

// PostSelectorField is one control of the posts query builder.
type PostSelectorField struct {
	Type    string            `json:"type"`
	Label   string            `json:"label"`
	Options map[string]string `json:"options,omitempty"`
}

// PostSelectorFields lists the query builder controls keyed by query
// argument.
func PostSelectorFields() map[string]PostSelectorField {
	return map[string]PostSelectorField{
		"post_type":      {Type: "select", Label: "Post type", Options: map[string]string{"post": "Posts", "page": "Pages", "_all": "All"}},
		"post__in":       {Type: "text", Label: "Post in"},
		"tax_query":      {Type: "text", Label: "Taxonomies"},
		"orderby":        {Type: "select", Label: "Order by", Options: map[string]string{"none": "No order", "ID": "Post ID", "author": "Author", "name": "Name", "date": "Date", "modified": "Modified", "rand": "Random", "comment_count": "Comment count", "menu_order": "Menu order"}},
		"order":          {Type: "select", Label: "Order direction", Options: map[string]string{"DESC": "Descending", "ASC": "Ascending"}},
		"posts_per_page": {Type: "number", Label: "Posts per page"},
		"sticky":         {Type: "select", Label: "Sticky posts", Options: map[string]string{"": "Default", "ignore": "Ignore sticky", "exclude": "Exclude sticky", "only": "Only sticky"}},
		"additional":     {Type: "text", Label: "Additional"},
	}
}
