package chi

import (
	"net/http"
	"path"
)

// staticFiles serves regular files under dir. Directories and missing files are 404.
func staticFiles(dir string) http.Handler {
	root := http.Dir(dir)
	files := http.FileServer(root)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, err := root.Open(path.Clean("/" + r.URL.Path))
		if err != nil {
			writeError(w, http.StatusNotFound, codeNotFound, "Not Found")
			return
		}
		info, err := f.Stat()
		_ = f.Close()
		if err != nil || info.IsDir() {
			writeError(w, http.StatusNotFound, codeNotFound, "Not Found")
			return
		}
		files.ServeHTTP(w, r)
	})
}
