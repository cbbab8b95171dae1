package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const defaultPerPage = 50

func calculateTotalPages(perPage, total uint64) uint64 {
	pages := total / perPage
	if total%perPage > 0 {
		return pages + 1
	}
	return pages
}

func addPaginationHeaders(w http.ResponseWriter, r *http.Request, page, perPage, total uint64) {
	totalPages := calculateTotalPages(perPage, total)
	url, _ := url.ParseRequestURI(r.URL.String())
	query := url.Query()
	header := ""
	if totalPages > page {
		query.Set("page", fmt.Sprintf("%v", page+1))
		url.RawQuery = query.Encode()
		header += "<" + url.String() + ">; rel=\"next\", "
	}
	query.Set("page", fmt.Sprintf("%v", totalPages))
	url.RawQuery = query.Encode()
	header += "<" + url.String() + ">; rel=\"last\""

	w.Header().Add("Link", header)
	w.Header().Add("X-Total-Count", fmt.Sprintf("%v", total))
}

func paginationParams(r *http.Request) (page uint64, perPage uint64, err error) {
	params := r.URL.Query()
	page = 1
	perPage = defaultPerPage

	if queryPage := params.Get("page"); queryPage != "" {
		page, err = strconv.ParseUint(queryPage, 10, 64)
		if err != nil || page == 0 {
			return 0, 0, fmt.Errorf("bad page parameter: %q", queryPage)
		}
	}
	if queryPerPage := params.Get("per_page"); queryPerPage != "" {
		perPage, err = strconv.ParseUint(queryPerPage, 10, 64)
		if err != nil || perPage == 0 {
			return 0, 0, fmt.Errorf("bad per_page parameter: %q", queryPerPage)
		}
	}

	return page, perPage, nil
}
