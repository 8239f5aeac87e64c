// Package migrations embeds the schema files for every supported store.
package migrations

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Up returns the contents of every *.up.sql file for the given driver
// directory, ordered by file name.
func Up(driver string) ([]string, error) {
	entries, err := fs.ReadDir(files, driver)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	scripts := make([]string, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(files, driver+"/"+name)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, string(data))
	}

	return scripts, nil
}
