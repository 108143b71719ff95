package controller

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/tsingjyujing/langid/charset"
	"github.com/tsingjyujing/langid/lid"
	"github.com/tsingjyujing/langid/profiles"
	"github.com/tsingjyujing/langid/utils"
)

// Undetermined is answered when no identification could be made.
const Undetermined = "und"

// MaxRawBody bounds the bytes read from a raw text request.
const MaxRawBody = 1 << 20

var logger = logrus.StandardLogger()

// LanguageIdentifier is implemented by lid.Pool and the alternative backends
// of package text.
type LanguageIdentifier interface {
	Identify(ctx context.Context, text string) (string, error)
}

type scorer interface {
	Scores(ctx context.Context, text string) ([]lid.Score, error)
}

type statsProvider interface {
	Stats() lid.PoolStats
}

type Options struct {
	// Languages are the codes the identifier was built for.
	Languages []string
	// ShortTextThreshold answers "en" for contents with fewer runes, 0 disables it.
	ShortTextThreshold int
	DefaultEncoding    string
}

type Controller struct {
	identifier         LanguageIdentifier
	resolver           *charset.Resolver
	languages          []string
	shortTextThreshold int
	defaultEncoding    string
}

func NewController(identifier LanguageIdentifier, resolver *charset.Resolver, opts Options) *Controller {
	return &Controller{
		identifier:         identifier,
		resolver:           resolver,
		languages:          append([]string(nil), opts.Languages...),
		shortTextThreshold: max(opts.ShortTextThreshold, 0),
		defaultEncoding:    opts.DefaultEncoding,
	}
}

// Close releases the identifier resources, when it holds any.
func (c *Controller) Close() error {
	if closer, ok := c.identifier.(interface{ Close() }); ok {
		closer.Close()
	}
	logger.Info("Controller resources closed successfully")
	return nil
}

// Language identifies content. It answers "" when nothing matched and
// Undetermined when no identification could be made at all.
func (c *Controller) Language(ctx context.Context, content string) string {
	if c.shortTextThreshold > 0 && utf8.RuneCountInString(content) < c.shortTextThreshold {
		return "en"
	}
	lang, err := c.identifier.Identify(ctx, content)
	if err != nil {
		logger.WithError(err).Error("Language identification unavailable")
		return Undetermined
	}
	logger.WithFields(logrus.Fields{
		"language": lang,
		"content":  lid.Truncate(content, contentPreviewLength),
	}).Info("Identified language")
	return lang
}

// AutoCharset asks Decode to guess the encoding of the data.
const AutoCharset = "auto"

const contentPreviewLength = 100

// Decode converts data to text. An empty or AutoCharset charsetName guesses
// the encoding first. It returns the encoding actually used.
func (c *Controller) Decode(data []byte, charsetName string) (string, string, error) {
	if charsetName == "" || strings.EqualFold(charsetName, AutoCharset) {
		charsetName = c.Encoding(data, "")
	}
	text, err := charset.Decode(data, charsetName)
	if err != nil {
		return "", charsetName, err
	}
	return text, strings.ToLower(charsetName), nil
}

// LanguageOf identifies raw bytes written in charsetName, see Decode.
func (c *Controller) LanguageOf(ctx context.Context, data []byte, charsetName string) (string, error) {
	text, _, err := c.Decode(data, charsetName)
	if err != nil {
		return "", err
	}
	return c.Language(ctx, text), nil
}

// Encoding guesses the encoding of data, defaultEncoding overrides the
// configured default when not empty.
func (c *Controller) Encoding(data []byte, defaultEncoding string) string {
	if defaultEncoding == "" {
		defaultEncoding = c.defaultEncoding
	}
	return c.resolver.GuessEncoding(data, defaultEncoding)
}

type LanguageRequest struct {
	Content string `json:"content"`
}

type LanguageResponse struct {
	Language string      `json:"language"`
	Encoding string      `json:"encoding,omitempty"`
	Scores   []lid.Score `json:"scores,omitempty"`
}

// IdentifyLanguage reads a JSON LanguageRequest. With ?charset= the body is
// raw text in that charset instead, "auto" guesses it.
func (c *Controller) IdentifyLanguage(echoCtx echo.Context) error {
	ctx := echoCtx.Request().Context()
	param := LanguageRequest{}
	response := LanguageResponse{}
	if echoCtx.QueryParams().Has("charset") {
		data, err := readBody(echoCtx)
		if err != nil {
			return utils.EchoHandleBadRequest(echoCtx, err)
		}
		param.Content, response.Encoding, err = c.Decode(data, echoCtx.QueryParam("charset"))
		if err != nil {
			return utils.EchoHandleBadRequest(echoCtx, err)
		}
	} else if err := echoCtx.Bind(&param); err != nil {
		return utils.EchoHandleBadRequest(echoCtx, err)
	}
	response.Language = c.Language(ctx, param.Content)

	withScores := echoCtx.QueryParam("scores")
	if withScores == "true" || withScores == "1" {
		s, ok := c.identifier.(scorer)
		if !ok {
			return utils.EchoHandleBadRequest(echoCtx, errors.New("scores are not supported by this backend"))
		}
		scores, err := s.Scores(ctx, param.Content)
		if err != nil {
			return utils.EchoHandleGenericError(echoCtx, err, http.StatusServiceUnavailable)
		}
		response.Scores = scores
	}
	return echoCtx.JSON(http.StatusOK, response)
}

type EncodingResponse struct {
	Encoding string `json:"encoding"`
}

// GuessEncoding reads the raw request body, ?default= names the encoding
// used when detection is not conclusive.
func (c *Controller) GuessEncoding(echoCtx echo.Context) error {
	data, err := readBody(echoCtx)
	if err != nil {
		return utils.EchoHandleBadRequest(echoCtx, err)
	}
	return echoCtx.JSON(http.StatusOK, EncodingResponse{
		Encoding: c.Encoding(data, echoCtx.QueryParam("default")),
	})
}

func readBody(echoCtx echo.Context) ([]byte, error) {
	body := echoCtx.Request().Body
	if body == nil {
		return nil, errors.New("missing request body")
	}
	return io.ReadAll(io.LimitReader(body, MaxRawBody))
}

// ListLanguages returns the supported languages with their English names.
func (c *Controller) ListLanguages(echoCtx echo.Context) error {
	mappings, err := profiles.Mappings()
	if err != nil {
		return utils.EchoHandleInternalError(echoCtx, err)
	}
	names := make(map[string]string, len(mappings))
	for _, m := range mappings {
		names[m.Code] = m.Name
	}
	result := make([]profiles.Mapping, 0, len(c.languages))
	for _, code := range c.languages {
		result = append(result, profiles.Mapping{Code: code, Name: names[code]})
	}
	return echoCtx.JSON(http.StatusOK, result)
}

// PoolStats reports the engine pool bookkeeping of the n-gram backend.
func (c *Controller) PoolStats(echoCtx echo.Context) error {
	s, ok := c.identifier.(statsProvider)
	if !ok {
		return echoCtx.JSON(http.StatusNotFound, utils.StatusResponse{Status: "not an engine pool"})
	}
	return echoCtx.JSON(http.StatusOK, s.Stats())
}
