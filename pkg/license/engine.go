package license

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// engineWhitelist constrains admissible output symbols: digits, Latin
// letters, CJK numerals and the punctuation that appears around
// certificate labels.
const engineWhitelist = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz" +
	"一二三四五六七八九十百千万亿壹贰叁肆伍陆柒捌玖拾佰仟萬億" +
	"（）()，。：；、【】[]{}|\\/-_+=*&^%$#@!?<>~" + "`"

// minTokenConfidence is the floor below which recognized words are
// dropped from the token list (Tesseract 0-100 scale). The whole-text
// confidence is still averaged over every word.
const minTokenConfidence = 30

// Engine wraps a shared Tesseract client. The client is expensive to
// initialize, so it is created lazily on first use and reused across
// recognitions; all access is serialized through the mutex because the
// underlying handle is stateful. Terminate releases the client and a
// later Recognize re-initializes it.
type Engine struct {
	mu        sync.Mutex
	client    *gosseract.Client
	languages []string
}

// NewEngine returns an uninitialized engine configured for simplified
// Chinese plus Latin script.
func NewEngine() *Engine {
	return &Engine{languages: []string{"chi_sim", "eng"}}
}

// initLocked creates and configures the shared client. Caller holds mu.
func (e *Engine) initLocked() error {
	if e.client != nil {
		return nil
	}
	cl := gosseract.NewClient()
	if err := cl.SetLanguage(e.languages...); err != nil {
		_ = cl.Close()
		return fmt.Errorf("engine init (language): %w", err)
	}
	if err := cl.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		_ = cl.Close()
		return fmt.Errorf("engine init (pageseg): %w", err)
	}
	if err := cl.SetWhitelist(engineWhitelist); err != nil {
		_ = cl.Close()
		return fmt.Errorf("engine init (whitelist): %w", err)
	}
	e.client = cl
	return nil
}

// Recognize runs OCR over an image buffer. The call serializes on the
// shared client; ctx cancellation stops the wait but the in-flight
// recognition is allowed to finish under the lock so the engine is never
// left with partially applied state.
func (e *Engine) Recognize(ctx context.Context, image []byte) (*RecognitionResult, error) {
	if len(image) == 0 {
		return nil, ErrImageRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type outcome struct {
		res *RecognitionResult
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		res, err := e.recognizeLocked(image)
		ch <- outcome{res, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-ch:
		return o.res, o.err
	}
}

func (e *Engine) recognizeLocked(image []byte) (*RecognitionResult, error) {
	if err := e.initLocked(); err != nil {
		return nil, err
	}
	if err := e.client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("bounding boxes: %w", err)
	}
	tokens, confidence := collectTokens(boxes)
	return &RecognitionResult{
		Text:       strings.TrimSpace(text),
		Confidence: confidence,
		Tokens:     tokens,
	}, nil
}

// collectTokens filters low-confidence words out of the token list and
// averages confidence over all words, filtered or not.
func collectTokens(boxes []gosseract.BoundingBox) ([]Token, float64) {
	var sum float64
	tokens := make([]Token, 0, len(boxes))
	for _, b := range boxes {
		sum += b.Confidence
		if b.Confidence <= minTokenConfidence {
			continue
		}
		tokens = append(tokens, Token{
			Text:       b.Word,
			Confidence: b.Confidence,
			Box:        Box{X0: b.Box.Min.X, Y0: b.Box.Min.Y, X1: b.Box.Max.X, Y1: b.Box.Max.Y},
		})
	}
	conf := 0.0
	if len(boxes) > 0 {
		conf = sum / float64(len(boxes))
	}
	return tokens, conf
}

// Terminate releases the shared client and resets initialization state.
// Safe to call when never initialized; a later Recognize re-initializes.
func (e *Engine) Terminate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}
