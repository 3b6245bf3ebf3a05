package client

import (
	"bufio"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// One request line produces one response. Only KEYS and a TTL without
// expiry end with an END line.
const (
	endMarker   = "END"
	noTTLMarker = "(no ttl)"
	emptyMarker = "(empty)"
	errorPrefix = "ERROR: "
)

// Response is the response to one command, with END stripped.
type Response struct {
	Lines []string
}

// ServerError is an "ERROR: ..." response.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string { return e.Message }

// Err returns a *ServerError when the server rejected the command.
func (r Response) Err() error {
	if len(r.Lines) == 1 && strings.HasPrefix(r.Lines[0], errorPrefix) {
		return &ServerError{Message: strings.TrimPrefix(r.Lines[0], errorPrefix)}
	}
	return nil
}

// Text joins the lines with newlines.
func (r Response) Text() string { return strings.Join(r.Lines, "\n") }

// Keyword returns the upper-cased first field of a command line.
func Keyword(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return cases.Upper(language.Und).String(fields[0])
}

// ReadResponse reads the response to a command whose keyword is kw.
func ReadResponse(rd *bufio.Reader, kw string) (Response, error) {
	first, err := readLine(rd)
	if err != nil {
		return Response{}, err
	}
	resp := Response{Lines: []string{first}}
	if strings.HasPrefix(first, errorPrefix) {
		return resp, nil
	}
	switch {
	case kw == "KEYS":
		if first == endMarker {
			resp.Lines = nil
			return resp, nil
		}
		for {
			l, err := readLine(rd)
			if err != nil {
				return Response{}, err
			}
			if l == endMarker {
				return resp, nil
			}
			resp.Lines = append(resp.Lines, l)
		}
	case kw == "TTL" && first == noTTLMarker:
		l, err := readLine(rd)
		if err != nil {
			return Response{}, err
		}
		if l != endMarker {
			return Response{}, errors.Errorf("expected %s after %s, got %q", endMarker, noTTLMarker, l)
		}
	}
	return resp, nil
}

func readLine(rd *bufio.Reader) (string, error) {
	l, err := rd.ReadString('\n')
	if err != nil {
		return "", errors.Wrap(err, "read response")
	}
	return strings.TrimRight(l, "\r\n"), nil
}
