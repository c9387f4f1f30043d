package mmapfs

import "path"

// walk traverses the tree rooted at p, calling fn for every path
// visited (p itself, then each descendant). It stops and returns fn's
// error as soon as fn returns one.
func walk(fs *FS, p string, fn func(p string, st Stat) error) error {
	st, err := fs.GetAttr(p)
	if err != nil {
		return err
	}
	if err := fn(p, st); err != nil {
		return err
	}
	if !st.IsDir() {
		return nil
	}

	names, err := fs.ReadDir(p)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := walk(fs, path.Join(p, name), fn); err != nil {
			return err
		}
	}
	return nil
}
