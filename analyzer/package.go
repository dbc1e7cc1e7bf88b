package analyzer

import (
	"context"
	"errors"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
)

// AnalyzeDir walks a directory tree and analyzes every workbook found.
// A failing workbook does not stop the others; failures are joined into the returned error.
func (a *Analyzer) AnalyzeDir(ctx context.Context, root string) ([]*Result, error) {
	var locations []string
	var visitor storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		if info.IsDir() || !WorkbookFiles(info) || hidden(parent) {
			return true, nil
		}
		locations = append(locations, url.Join(url.Join(baseURL, parent), info.Name()))
		return true, nil
	}
	if err := a.fs.Walk(ctx, root, visitor); err != nil {
		return nil, err
	}
	sort.Strings(locations)

	var results []*Result
	var errs []error
	for _, location := range locations {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := a.AnalyzeFile(ctx, location)
		if err != nil {
			a.logger.Error("workbook analysis failed", "location", location, "error", err)
			errs = append(errs, err)
			continue
		}
		results = append(results, result)
	}
	return results, errors.Join(errs...)
}

func hidden(parent string) bool {
	for _, segment := range strings.Split(parent, "/") {
		if strings.HasPrefix(segment, ".") && segment != "." && segment != ".." {
			return true
		}
	}
	return false
}
