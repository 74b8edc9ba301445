// Documentation: https://ascom-standards.org/api/

package alpaca

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
)

// Global transaction counter
var txCounter atomic.Int32

type baseResponse struct {
	ClientTransactionID int    `json:"ClientTransactionID"`
	ServerTransactionID int    `json:"ServerTransactionID"`
	ErrorNumber         int    `json:"ErrorNumber"`
	ErrorMessage        string `json:"ErrorMessage"`
	Value               any    `json:"Value,omitempty"`
}

// Helper to read and parse the request body as URL-encoded data.
func parseBodyParams(r *http.Request) (url.Values, error) {
	if r.Body == nil {
		return url.Values{}, nil
	}
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	// Reset the body so it can be read again later.
	r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	return url.ParseQuery(string(bodyBytes))
}

// requestParams returns the query parameters of GET requests and the form
// body of PUT requests.
func requestParams(r *http.Request) url.Values {
	if r.Method == http.MethodPut {
		params, err := parseBodyParams(r)
		if err != nil {
			return url.Values{}
		}
		return params
	}
	return r.URL.Query()
}

// lookupParam finds a parameter ignoring case. Alpaca parameter names are
// case insensitive.
func lookupParam(params url.Values, field string) (string, bool) {
	for param, value := range params {
		if strings.EqualFold(param, field) && len(value) > 0 {
			return value[0], true
		}
	}
	return "", false
}

// getClientTxID obtains the client transaction ID from the request parameters.
// A missing ID is reported as zero.
func getClientTxID(params url.Values) (int, error) {
	value, ok := lookupParam(params, "ClientTransactionID")
	if !ok {
		return 0, nil
	}
	id, err := strconv.Atoi(value)
	if err != nil || id < 0 {
		return 0, errors.New("ClientTransactionID must be a non-negative integer")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, response baseResponse) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func handleResponse(w http.ResponseWriter, r *http.Request, value any) {
	txID, err := getClientTxID(requestParams(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, baseResponse{
		ServerTransactionID: int(txCounter.Add(1)),
		ClientTransactionID: txID,
		Value:               value,
	})
}

// handleError reports err as an Alpaca error. Alpaca errors travel in the body
// with an HTTP 200 status; only malformed requests get an HTTP error code.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	txID, txErr := getClientTxID(requestParams(r))
	if txErr != nil {
		http.Error(w, txErr.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, baseResponse{
		ServerTransactionID: int(txCounter.Add(1)),
		ClientTransactionID: txID,
		ErrorNumber:         errorNumber(err),
		ErrorMessage:        err.Error(),
	})
}

// parseRequest reads a field from the request body.
func parseRequest(r *http.Request, field string) (string, error) {
	params, err := parseBodyParams(r)
	if err != nil {
		return "", err
	}

	value, ok := lookupParam(params, field)
	if !ok {
		return "", invalidValue("missing field %s", field)
	}
	return value, nil
}

func parseBoolRequest(r *http.Request, field string) (bool, error) {
	value, err := parseRequest(r, field)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, invalidValue("invalid %s: %q", field, value)
	}
	return b, nil
}

func parseFloatRequest(r *http.Request, field string) (float64, error) {
	value, err := parseRequest(r, field)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, invalidValue("invalid %s: %q", field, value)
	}
	return f, nil
}
