package binding

// Defaults returns the built-in keystring list per action for ctx. The
// spec's Binding Map contract (§4.1) only defines how defaults merge with
// user overrides, not the concrete key choices, so this table is an
// implementation decision: conventional file-manager bindings, with
// vi-style hjkl offered alongside arrow keys where it's unambiguous.
func Defaults(ctx Context) map[string][]string {
	switch ctx {
	case ContextFilePanel:
		return map[string][]string{
			"quit":           {"q", "ctrl+c"},
			"move_up":        {"up", "k"},
			"move_down":      {"down", "j"},
			"page_up":        {"pageup"},
			"page_down":      {"pagedown"},
			"go_top":         {"home"},
			"go_bottom":      {"end"},
			"enter":          {"enter", "l"},
			"go_parent":      {"backspace", "h"},
			"toggle_select":  {"space"},
			"select_all":     {"ctrl+a"},
			"switch_panel":   {"tab"},
			"go_to_path":     {"ctrl+g"},
			"open_editor":    {"f4"},
			"open_viewer":    {"f3"},
			"copy":           {"f5"},
			"move":           {"f6"},
			"mkdir":          {"f7"},
			"delete":         {"f8"},
			"diff":           {"f9"},
			"process_manager": {"f11"},
			"help":           {"f1"},
			"settings":       {"f2"},
			"toggle_hidden":  {"ctrl+h"},
			"sort_name":      {"ctrl+1"},
			"sort_size":      {"ctrl+2"},
			"sort_date":      {"ctrl+3"},
			"sort_type":      {"ctrl+4"},
			"select_by_ext":  {"+"},
			"cycle_order":    {"ctrl+r"},
			"toggle_bookmark": {"ctrl+d"},
			"pack":           {"ctrl+p"},
			"unpack":         {"ctrl+u"},
			"git_status":     {"f12"},
			"ai":             {"f10"},
		}
	case ContextFileEditor:
		return map[string][]string{
			"save":         {"ctrl+s"},
			"close":        {"esc"},
			"undo":         {"ctrl+z"},
			"redo":         {"ctrl+y"},
			"cut":          {"ctrl+x"},
			"copy":         {"ctrl+c"},
			"paste":        {"ctrl+v"},
			"find":         {"ctrl+f"},
			"find_next":    {"f3"},
			"find_prev":    {"shift+f3"},
			"replace":      {"ctrl+r"},
			"go_to_line":   {"ctrl+g"},
			"toggle_wrap":  {"alt+z"},
			"select_all":   {"ctrl+a"},
		}
	case ContextFileInfo:
		return map[string][]string{
			"close":           {"esc", "q"},
			"find":            {"ctrl+f", "/"},
			"find_next":       {"n"},
			"find_prev":       {"p"},
			"toggle_bookmark": {"ctrl+d"},
			"next_bookmark":   {"ctrl+n"},
			"prev_bookmark":   {"ctrl+p"},
		}
	case ContextSystemInfo:
		return map[string][]string{
			"close": {"esc", "q"},
		}
	case ContextSearchResult, ContextAdvancedSearch:
		return map[string][]string{
			"close":     {"esc"},
			"move_up":   {"up"},
			"move_down": {"down"},
			"enter":     {"enter"},
		}
	case ContextDiffScreen:
		return map[string][]string{
			"close":     {"esc", "q"},
			"move_up":   {"up", "k"},
			"move_down": {"down", "j"},
			"open":      {"enter"},
		}
	case ContextDiffFileView:
		return map[string][]string{
			"close":     {"esc", "q"},
			"move_up":   {"up", "k"},
			"move_down": {"down", "j"},
		}
	case ContextImageViewer:
		return map[string][]string{
			"close":      {"esc", "q"},
			"scroll_up":  {"up", "k"},
			"scroll_down": {"down", "j"},
		}
	case ContextProcessManager:
		return map[string][]string{
			"close":  {"esc", "q"},
			"move_up":   {"up", "k"},
			"move_down": {"down", "j"},
			"kill":   {"ctrl+k", "delete"},
			"cancel": {"ctrl+x"},
		}
	case ContextDialog:
		return map[string][]string{
			"close": {"esc"},
		}
	case ContextHelp, ContextSettings, ContextAI, ContextGit:
		return map[string][]string{
			"close": {"esc", "q"},
		}
	default:
		return map[string][]string{
			"close": {"esc"},
		}
	}
}

// allContexts lists every Context, for BuildAll.
var allContexts = []Context{
	ContextFilePanel, ContextFileEditor, ContextFileInfo, ContextSystemInfo,
	ContextSearchResult, ContextAdvancedSearch, ContextDiffScreen,
	ContextDiffFileView, ContextImageViewer, ContextProcessManager,
	ContextDialog, ContextHelp, ContextSettings, ContextAI, ContextGit,
}

// BuildAll builds a Map for every Context, merging Defaults(ctx) with
// overrides[string(ctx)] per the usual Build contract.
func BuildAll(overrides map[string]map[string][]string) (map[Context]*Map, error) {
	out := make(map[Context]*Map, len(allContexts))
	for _, ctx := range allContexts {
		m, err := Build(ctx, Defaults(ctx), overrides[string(ctx)])
		if err != nil {
			return nil, err
		}
		out[ctx] = m
	}
	return out, nil
}
