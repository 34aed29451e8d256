package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"
)

// Key derivation per region. Every input that can change the result of the
// wrapped operation must be part of the key; an under-specified key would
// return a stale value for a semantically different request. Fields are
// length-prefixed before hashing so distinct tuples never produce the same
// fingerprint by concatenation.

// DetectKey fingerprints a language-detection input.
func DetectKey(text string) string {
	return fingerprint("detect", text)
}

// TranslationKey fingerprints a translation input. Source and target language
// both matter: the same text translates differently per direction.
func TranslationKey(text, sourceLang, targetLang string) string {
	return fingerprint("translate", text, sourceLang, targetLang)
}

// ExpansionKey fingerprints a query-expansion input. Strategy is part of the
// key because multi-query and decomposition prompts yield different sets.
func ExpansionKey(question, strategy string) string {
	return fingerprint("expand", question, strategy)
}

// SearchKey fingerprints a vector-search input. The result set legitimately
// varies with the query text, the retrieval language, and the requested
// result count.
func SearchKey(query, lang string, topK int) string {
	return fingerprint("search", query, lang, strconv.Itoa(topK))
}

func fingerprint(parts ...string) string {
	h := sha256.New()
	var size [8]byte
	for _, part := range parts {
		binary.BigEndian.PutUint64(size[:], uint64(len(part)))
		h.Write(size[:])
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}
