package retriever

import "strings"

// stopWords is a fixed English stop-word set applied to fulltext queries.
// Conversational query text is dominated by these; stripping them tends to
// sharpen Lucene relevance without any entity extraction.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "can": {}, "do": {}, "does": {}, "for": {}, "from": {},
	"had": {}, "has": {}, "have": {}, "how": {}, "i": {}, "if": {}, "in": {},
	"into": {}, "is": {}, "it": {}, "its": {}, "me": {}, "my": {}, "no": {},
	"not": {}, "of": {}, "on": {}, "or": {}, "our": {}, "so": {}, "such": {},
	"that": {}, "the": {}, "their": {}, "then": {}, "there": {}, "these": {},
	"they": {}, "this": {}, "to": {}, "was": {}, "we": {}, "were": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "who": {}, "why": {},
	"will": {}, "with": {}, "would": {}, "you": {}, "your": {},
}

// FilterStopWords removes stop words from the query. When filtering would
// remove every token, the original query is returned unchanged rather than
// sending an empty Lucene query.
func FilterStopWords(query string) string {
	fields := strings.Fields(query)
	kept := make([]string, 0, len(fields))

	for _, field := range fields {
		if _, stop := stopWords[strings.ToLower(field)]; stop {
			continue
		}
		kept = append(kept, field)
	}

	if len(kept) == 0 {
		return query
	}
	return strings.Join(kept, " ")
}

// luceneSpecials are the Lucene query-syntax operators that must be escaped
// so raw conversation text cannot change query semantics.
var luceneSpecials = []string{
	`\`, `+`, `-`, `&&`, `||`, `!`, `(`, `)`, `{`, `}`, `[`, `]`,
	`^`, `"`, `~`, `*`, `?`, `:`, `/`,
}

// SanitizeLuceneQuery escapes Lucene operators in the query text.
func SanitizeLuceneQuery(query string) string {
	for _, special := range luceneSpecials {
		query = strings.ReplaceAll(query, special, `\`+special)
	}
	return query
}
