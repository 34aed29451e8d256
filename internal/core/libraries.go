package core

import "sort"

// The assistant answers questions about a fixed set of Python libraries aimed
// at learners. Official documentation URLs back the doc-link tool.

var supportedLibraries = []string{
	"random", "math", "datetime", "json", "os", "sys",
	"collections", "itertools", "functools",
	"pandas", "numpy",
	"matplotlib", "seaborn",
	"requests", "flask",
	"pytest", "unittest",
	"csv", "pathlib",
	"re", "string",
	"pip", "setuptools",
}

var officialDocURLs = map[string][]string{
	"random":      {"https://docs.python.org/3/library/random.html"},
	"math":        {"https://docs.python.org/3/library/math.html"},
	"datetime":    {"https://docs.python.org/3/library/datetime.html"},
	"json":        {"https://docs.python.org/3/library/json.html"},
	"os":          {"https://docs.python.org/3/library/os.html"},
	"sys":         {"https://docs.python.org/3/library/sys.html"},
	"collections": {"https://docs.python.org/3/library/collections.html"},
	"itertools":   {"https://docs.python.org/3/library/itertools.html"},
	"functools":   {"https://docs.python.org/3/library/functools.html"},
	"pandas": {
		"https://pandas.pydata.org/docs/",
		"https://pandas.pydata.org/docs/user_guide/10min.html",
	},
	"numpy": {
		"https://numpy.org/doc/stable/",
		"https://numpy.org/doc/stable/user/quickstart.html",
	},
	"matplotlib": {
		"https://matplotlib.org/stable/",
		"https://matplotlib.org/stable/tutorials/pyplot.html",
	},
	"seaborn":  {"https://seaborn.pydata.org/"},
	"requests": {"https://requests.readthedocs.io/en/latest/"},
	"flask":    {"https://flask.palletsprojects.com/"},
	"pytest":   {"https://docs.pytest.org/en/stable/"},
	"unittest": {"https://docs.python.org/3/library/unittest.html"},
	"csv":      {"https://docs.python.org/3/library/csv.html"},
	"pathlib":  {"https://docs.python.org/3/library/pathlib.html"},
	"re":       {"https://docs.python.org/3/library/re.html"},
	"string":   {"https://docs.python.org/3/library/string.html"},
	"pip":      {"https://pip.pypa.io/en/stable/"},
	"setuptools": {
		"https://setuptools.pypa.io/en/latest/",
	},
}

// SupportedLibraries returns the library set, sorted.
func SupportedLibraries() []string {
	result := make([]string, len(supportedLibraries))
	copy(result, supportedLibraries)
	sort.Strings(result)
	return result
}

// IsSupportedLibrary reports whether the assistant covers the library.
func IsSupportedLibrary(name string) bool {
	for _, lib := range supportedLibraries {
		if lib == name {
			return true
		}
	}
	return false
}

// DocURLs returns the official documentation links for a library.
func DocURLs(library string) []string {
	urls, ok := officialDocURLs[library]
	if !ok {
		return nil
	}
	result := make([]string, len(urls))
	copy(result, urls)
	return result
}
