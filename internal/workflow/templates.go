package workflow

// BuiltinTemplates are starting-point definitions exposed over the API.
var BuiltinTemplates = []Definition{
	{
		ID:          "tpl_fetch_transform_publish",
		Name:        "fetch_transform_publish",
		Description: "Fetch an artifact, transform it, publish the result",
		Variables:   map[string]string{"source_url": "", "dest_dir": "./out"},
		Steps: []Step{
			{ID: "fetch", Command: "curl", Args: []string{"-sSfLo", "artifact.bin", "$source_url"}, RetryCount: 2, Output: "fetched"},
			{ID: "transform", Command: "gzip", Args: []string{"-k", "artifact.bin"}, DependsOn: []string{"fetch"}},
			{ID: "publish", Command: "cp", Args: []string{"artifact.bin.gz", "$dest_dir"}, DependsOn: []string{"transform"}},
		},
	},
	{
		ID:          "tpl_backup_verify",
		Name:        "backup_verify",
		Description: "Archive a directory and verify the archive",
		Variables:   map[string]string{"target": "."},
		Steps: []Step{
			{ID: "archive", Command: "tar", Args: []string{"-czf", "backup.tar.gz", "$target"}, Output: "archive_out"},
			{ID: "verify", Command: "tar", Args: []string{"-tzf", "backup.tar.gz"}, DependsOn: []string{"archive"}},
			{ID: "report", Command: "echo", Args: []string{"backup complete: $archive_out"}, DependsOn: []string{"verify"}},
		},
	},
	{
		ID:          "tpl_conditional_deploy",
		Name:        "conditional_deploy",
		Description: "Build, then deploy only when the environment allows it",
		Variables:   map[string]string{"env": "staging"},
		Steps: []Step{
			{ID: "build", Command: "make", Args: []string{"build"}, Output: "build_out"},
			{ID: "deploy", Command: "make", Args: []string{"deploy"}, DependsOn: []string{"build"}, Condition: "$env == prod"},
			{ID: "notify", Command: "echo", Args: []string{"pipeline finished for $env"}, DependsOn: []string{"deploy"}},
		},
	},
}
