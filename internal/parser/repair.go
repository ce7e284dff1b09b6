package parser

// repair applies the two idempotent frontmatter shape fixes spec.md §4.1
// names, grounded on
// original_source/roadmap/core/services/health/file_repair_service.go's
// `_fix_git_commits`/`_fix_git_branches`: git_commits normalizes to a
// list of {hash: ...} maps, git_branches normalizes to a list of plain
// strings. Both passes are no-ops on already-normalized input, and on
// any field whose shape they don't recognize, so repeated calls
// converge.
func repair(meta Metadata) Metadata {
	fixGitCommits(meta)
	fixGitBranches(meta)

	return meta
}

func fixGitCommits(meta Metadata) {
	raw, ok := meta["git_commits"]
	if !ok {
		return
	}

	list, ok := raw.([]any)
	if !ok {
		return
	}

	fixed := make([]any, len(list))

	for i, commit := range list {
		if hash, ok := commit.(string); ok {
			fixed[i] = map[string]any{"hash": hash}
			continue
		}

		fixed[i] = commit
	}

	meta["git_commits"] = fixed
}

func fixGitBranches(meta Metadata) {
	raw, ok := meta["git_branches"]
	if !ok {
		return
	}

	list, ok := raw.([]any)
	if !ok {
		return
	}

	fixed := make([]any, len(list))

	for i, branch := range list {
		switch v := branch.(type) {
		case string:
			fixed[i] = v
		case map[string]any:
			if name, ok := v["name"].(string); ok {
				fixed[i] = name
			} else {
				fixed[i] = branch
			}
		default:
			fixed[i] = branch
		}
	}

	meta["git_branches"] = fixed
}
