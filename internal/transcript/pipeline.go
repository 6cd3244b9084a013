package transcript

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/MrWong99/dictee/internal/observe"
	"github.com/MrWong99/dictee/internal/transcript/phonetic"
	"github.com/MrWong99/dictee/pkg/frnum"
	"github.com/MrWong99/dictee/pkg/phrase"
	"github.com/MrWong99/dictee/pkg/types"
)

const defaultVocabularyMinConfidence = 0.5

// Option is a functional option for configuring a [Pipeline].
type Option func(*Pipeline)

// WithPreRules replaces the phrase rules applied before number conversion.
// Default: [phrase.DefaultPre].
func WithPreRules(rs phrase.Rules) Option {
	return func(p *Pipeline) {
		p.pre = rs
	}
}

// WithPostRules replaces the phrase rules applied after number conversion.
// Default: [phrase.DefaultPost].
func WithPostRules(rs phrase.Rules) Option {
	return func(p *Pipeline) {
		p.post = rs
	}
}

// WithCleanupRules replaces the final spacing rules.
// Default: [phrase.DefaultCleanup].
func WithCleanupRules(rs phrase.Rules) Option {
	return func(p *Pipeline) {
		p.cleanup = rs
	}
}

// WithNumbers enables or disables the number conversion stage.
// Default: enabled.
func WithNumbers(enabled bool) Option {
	return func(p *Pipeline) {
		p.numbers = enabled
	}
}

// WithVocabulary activates the vocabulary stage. When m is nil or vocabulary
// is empty (the default), the stage is skipped entirely.
func WithVocabulary(m VocabularyMatcher, vocabulary []string) Option {
	return func(p *Pipeline) {
		p.matcher = m
		p.vocabulary = vocabulary
	}
}

// WithVocabularyMinConfidence sets the STT word confidence below which a word
// is eligible for vocabulary matching. Default: 0.5.
//
// Transcripts without per-word data are matched in full.
func WithVocabularyMinConfidence(threshold float64) Option {
	return func(p *Pipeline) {
		p.minConfidence = threshold
	}
}

// WithMetrics records stage metrics on m. When nil (the default), nothing is
// recorded.
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// Pipeline is the staged French dictation post-processor.
//
// Pipeline is immutable after [New] returns and safe for concurrent use.
type Pipeline struct {
	pre, post, cleanup phrase.Rules
	numbers            bool

	matcher       VocabularyMatcher
	vocabulary    []string
	minConfidence float64
	matchFn       func(window string, n int) (string, float64, bool)
	maxWords      int
	protected     map[string]struct{}

	metrics *observe.Metrics
}

// Ensure Pipeline satisfies the Processor interface at compile time.
var _ Processor = (*Pipeline)(nil)

// New constructs a [Pipeline] with the French defaults, modified by opts.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		pre:           phrase.DefaultPre,
		post:          phrase.DefaultPost,
		cleanup:       phrase.DefaultCleanup,
		numbers:       true,
		minConfidence: defaultVocabularyMinConfidence,
	}
	for _, o := range opts {
		o(p)
	}
	p.prepareVocabulary()
	return p
}

// prepareVocabulary encodes the vocabulary once. The phonetic matcher gets one
// prepared index per term word count; other matchers see the raw list on
// every call.
func (p *Pipeline) prepareVocabulary() {
	if p.matcher == nil || len(p.vocabulary) == 0 {
		return
	}

	if pm, ok := p.matcher.(*phonetic.Matcher); ok {
		byWords := make(map[int][]string)
		for _, v := range p.vocabulary {
			n := len(strings.Fields(v))
			byWords[n] = append(byWords[n], v)
		}
		indexes := make(map[int]*phonetic.Index, len(byWords))
		for n, terms := range byWords {
			idx := phonetic.NewIndex(terms)
			indexes[n] = idx
			p.maxWords = max(p.maxWords, idx.MaxWords())
		}
		p.matchFn = func(w string, n int) (string, float64, bool) {
			idx, ok := indexes[n]
			if !ok {
				return w, 0, false
			}
			return pm.MatchIndex(w, idx)
		}
	} else {
		p.maxWords = maxWordCount(p.vocabulary)
		p.matchFn = func(w string, _ int) (string, float64, bool) {
			return p.matcher.Match(w, p.vocabulary)
		}
	}

	// Words consumed by the post-number rules must survive the vocabulary
	// stage or "point" could be snapped onto a term before it becomes ".".
	p.protected = make(map[string]struct{})
	for _, r := range p.post {
		for _, w := range strings.Fields(r.From) {
			p.protected[strings.ToLower(w)] = struct{}{}
		}
	}
}

var defaultPipeline = sync.OnceValue(func() *Pipeline { return New() })

// Default returns the shared pipeline built with the French defaults and no
// vocabulary.
func Default() *Pipeline {
	return defaultPipeline()
}

// ProcessText runs text through the [Default] pipeline and returns the result.
//
//	ProcessText("il y a vingt et un chats point") == "il y a 21 chats."
func ProcessText(text string) string {
	return Default().Apply(text)
}

// Apply runs text through every stage and returns only the processed text.
// It never fails.
func (p *Pipeline) Apply(text string) string {
	out, _, _ := p.run(context.Background(), types.Transcript{Text: text}, false)
	return out
}

// Process applies every configured stage to t and returns a [Result].
//
// Stage order is fixed: pre-number phrases, vocabulary, numbers, post-number
// phrases, cleanup. ctx is checked between stages; when it is done the
// partial work is discarded and ctx.Err() is returned.
func (p *Pipeline) Process(ctx context.Context, t types.Transcript) (*Result, error) {
	start := time.Now()
	ctx, span := observe.StartSpan(ctx, "transcript.Process")
	defer span.End()

	text, edits, err := p.run(ctx, t, true)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("dictee.text.length", len(t.Text)),
		attribute.Int("dictee.edits", len(edits)),
	)
	if p.metrics != nil {
		p.metrics.TranscriptDuration.Record(ctx, time.Since(start).Seconds())
	}

	return &Result{Original: t, Text: text, Edits: edits}, nil
}

func (p *Pipeline) run(ctx context.Context, t types.Transcript, detailed bool) (string, []Edit, error) {
	text := t.Text
	edits := []Edit{}

	// --- Stage 1: pre-number phrases ---
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	text, edits = p.applyPhrases(ctx, text, p.pre, edits, detailed)

	// --- Stage 2: vocabulary ---
	if p.matchFn != nil {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		var vocab []Edit
		text, vocab = p.applyVocabulary(text, t.Words)
		edits = append(edits, vocab...)
		p.recordEdits(ctx, StageVocabulary, len(vocab))
	}

	// --- Stage 3: numbers ---
	if p.numbers {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		if detailed {
			var conversions []frnum.Conversion
			text, conversions = frnum.ConvertDetailed(text)
			for _, c := range conversions {
				edits = append(edits, Edit{
					Original:    strings.Join(c.Words, " "),
					Replacement: strconv.FormatInt(c.Value, 10),
					Stage:       StageNumber,
					Confidence:  1,
				})
			}
			p.recordEdits(ctx, StageNumber, len(conversions))
			if p.metrics != nil && len(conversions) > 0 {
				p.metrics.NumbersConverted.Add(ctx, int64(len(conversions)))
			}
		} else {
			text = frnum.Convert(text)
		}
	}

	// --- Stage 4 and 5: post-number phrases, cleanup ---
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	text, edits = p.applyPhrases(ctx, text, p.post, edits, detailed)
	text, edits = p.applyPhrases(ctx, text, p.cleanup, edits, detailed)

	return text, edits, nil
}

// applyPhrases runs rs over text and appends one [Edit] per replaced
// occurrence when detailed is set.
func (p *Pipeline) applyPhrases(ctx context.Context, text string, rs phrase.Rules, edits []Edit, detailed bool) (string, []Edit) {
	if !detailed {
		return rs.Apply(text), edits
	}

	text, matches := rs.ApplyDetailed(text)
	var n int
	for _, m := range matches {
		for range m.Count {
			edits = append(edits, Edit{
				Original:    m.Rule.From,
				Replacement: m.Rule.To,
				Stage:       StagePhrase,
				Confidence:  1,
			})
		}
		n += m.Count
	}
	p.recordEdits(ctx, StagePhrase, n)
	return text, edits
}

// applyVocabulary snaps misheard words onto the vocabulary.
//
// The algorithm:
//  1. Split the text on single spaces, keeping empty tokens so spacing
//     survives the round trip.
//  2. At each token position, try n-gram windows from the longest term's word
//     count down to 1 and accept the first match, so multi-word terms take
//     precedence over partial single-word matches. A window only accepts a
//     term with the same word count, so neighbouring words are never
//     swallowed by a shorter term.
//  3. Windows that touch an empty token, a number word or a word used by the
//     post-number rules are never matched. When per-word confidence data is
//     present, a window must also contain at least one low-confidence word.
func (p *Pipeline) applyVocabulary(text string, words []types.WordDetail) (string, []Edit) {
	tokens := strings.Split(text, " ")
	lowConf := p.lowConfidenceWords(words)

	var (
		out   = make([]string, 0, len(tokens))
		edits []Edit
	)

	i := 0
	for i < len(tokens) {
		maxN := min(p.maxWords, len(tokens)-i)

		consumed := 0
		for n := maxN; n >= 1; n-- {
			window := tokens[i : i+n]
			if !p.eligible(window, lowConf) {
				continue
			}
			original := strings.Join(window, " ")
			term, conf, ok := p.matchFn(original, n)
			if !ok || len(strings.Fields(term)) != n {
				continue
			}
			out = append(out, term)
			if term != original {
				edits = append(edits, Edit{
					Original:    original,
					Replacement: term,
					Stage:       StageVocabulary,
					Confidence:  conf,
				})
			}
			consumed = n
			break
		}

		if consumed == 0 {
			out = append(out, tokens[i])
			consumed = 1
		}
		i += consumed
	}

	return strings.Join(out, " "), edits
}

// lowConfidenceWords returns the lower-cased words reported below the
// configured confidence, or nil when the engine gave no per-word data.
func (p *Pipeline) lowConfidenceWords(words []types.WordDetail) map[string]struct{} {
	if len(words) == 0 {
		return nil
	}
	low := make(map[string]struct{})
	for _, w := range words {
		if w.Confidence < p.minConfidence {
			low[strings.ToLower(w.Word)] = struct{}{}
		}
	}
	return low
}

func (p *Pipeline) eligible(window []string, lowConf map[string]struct{}) bool {
	needLow := lowConf != nil
	for _, tok := range window {
		if tok == "" || isNumberToken(tok) {
			return false
		}
		lower := strings.ToLower(tok)
		if _, ok := p.protected[lower]; ok {
			return false
		}
		if needLow {
			if _, ok := lowConf[lower]; ok {
				needLow = false
			}
		}
	}
	return !needLow
}

func (p *Pipeline) recordEdits(ctx context.Context, stage string, n int) {
	if p.metrics == nil || n == 0 {
		return
	}
	p.metrics.RecordEdits(ctx, stage, n)
}

// isNumberToken reports whether every non-empty hyphen part of tok is a
// French number word.
func isNumberToken(tok string) bool {
	found := false
	for part := range strings.SplitSeq(tok, "-") {
		if part == "" {
			continue
		}
		if !frnum.IsNumberWord(part) {
			return false
		}
		found = true
	}
	return found
}

// maxWordCount returns the maximum number of whitespace-separated words in
// any vocabulary term.
func maxWordCount(vocabulary []string) int {
	n := 0
	for _, v := range vocabulary {
		n = max(n, len(strings.Fields(v)))
	}
	return n
}
