// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

package api

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ghrecommend/internal/models"
	"github.com/tomtom215/ghrecommend/internal/pipeline"
	"github.com/tomtom215/ghrecommend/internal/preferences"
)

// PreferencesField is the multipart field carrying the preference file.
const PreferencesField = "preferences"

// maxBodyBytes bounds request bodies: a preference upload plus form fields.
const maxBodyBytes = preferences.MaxUploadBytes + 64<<10

// RecommendRequest is the JSON body of POST /recommendations and
// POST /profiles. Multipart requests carry the same content as a
// "preferences" file plus one form field per parameter.
type RecommendRequest struct {
	Repos  []string        `json:"repo"`
	Params pipeline.Params `json:"params"`
	Debug  bool            `json:"debug,omitempty"`
}

// ExplainRequest is the JSON body of POST /explain.
type ExplainRequest struct {
	Repos  []string        `json:"repo"`
	Item   string          `json:"item" validate:"required,repo"`
	Params pipeline.Params `json:"params"`
}

// SimilarRequest holds the query parameters of GET /similar.
type SimilarRequest struct {
	Repo string `json:"repo" validate:"required,repo"`
	N    int    `json:"n" validate:"gte=1,lte=100"`
}

// decodeRecommendRequest reads a JSON or multipart recommendation request.
// With requireRepos the JSON body must carry the preference list under the
// "repo" key, exactly like an uploaded preference file. Otherwise an empty
// body is allowed and yields a zero request.
func decodeRecommendRequest(w http.ResponseWriter, r *http.Request, requireRepos bool) (*RecommendRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return decodeMultipart(r)
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, bodyError(err)
	}
	req := &RecommendRequest{}
	if err := decodeJSON(bytes.NewReader(data), req); err != nil {
		return nil, err
	}
	if requireRepos {
		if req.Repos, err = preferences.ParseBytes(data); err != nil {
			return nil, err
		}
	}
	return req, nil
}

func decodeJSON(body io.Reader, dst interface{}) error {
	err := json.NewDecoder(body).Decode(dst)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	default:
		return bodyError(err)
	}
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return models.InputErrorf("request body exceeds %d bytes", maxErr.Limit)
	}
	return models.InputErrorf("request body is not valid JSON: %v", err)
}

func decodeMultipart(r *http.Request) (*RecommendRequest, error) {
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
		return nil, models.InputErrorf("invalid multipart form: %v", err)
	}
	req := &RecommendRequest{}

	file, _, err := r.FormFile(PreferencesField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return nil, models.InputErrorf("you need to upload some preferences")
	case err != nil:
		return nil, models.InputErrorf("read %s file: %v", PreferencesField, err)
	}
	defer file.Close()

	if req.Repos, err = preferences.Parse(file); err != nil {
		return nil, err
	}
	if req.Params, err = paramsFromForm(r.MultipartForm.Value); err != nil {
		return nil, err
	}
	req.Debug, _ = strconv.ParseBool(formValue(r.MultipartForm.Value, "debug"))
	return req, nil
}

func formValue(form map[string][]string, key string) string {
	if vs := form[key]; len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}

// paramsFromForm reads run parameters from string values, as sent by forms
// and query strings. Absent or blank fields stay nil.
func paramsFromForm(form map[string][]string) (pipeline.Params, error) {
	var p pipeline.Params
	var err error

	str := func(key string) *string {
		if v := formValue(form, key); v != "" {
			return &v
		}
		return nil
	}
	integer := func(key string) *int {
		v := formValue(form, key)
		if v == "" || err != nil {
			return nil
		}
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			err = models.InputErrorf("%s must be an integer, got %q", key, v)
			return nil
		}
		return &n
	}

	p.Algorithm = str("algorithm")
	p.Start = str("start")
	p.End = str("end")
	p.ThresholdBasis = str("threshold_basis")
	p.Ranking = str("ranking")
	p.MinItems = integer("min_items")
	p.MaxItems = integer("max_items")
	p.TopItems = integer("top_items")
	p.Factors = integer("factors")
	p.Iterations = integer("iterations")
	p.TopN = integer("top_n")

	if v := formValue(form, "unique_user_threshold"); v != "" && err == nil {
		f, convErr := strconv.ParseFloat(v, 64)
		if convErr != nil {
			err = models.InputErrorf("unique_user_threshold must be a number, got %q", v)
		} else {
			p.UniqueUserThreshold = &f
		}
	}
	if v := formValue(form, "seed"); v != "" && err == nil {
		s, convErr := strconv.ParseInt(v, 10, 64)
		if convErr != nil {
			err = models.InputErrorf("seed must be an integer, got %q", v)
		} else {
			p.Seed = &s
		}
	}
	return p, err
}
