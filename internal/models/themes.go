package models

// Clusters maps a cluster id to the sentences assigned to it.
// Every list is non-empty. Ids are opaque and only stable within one run.
type Clusters map[int][]string

// Sizes returns the number of sentences per cluster id.
func (c Clusters) Sizes() map[int]int {
	sizes := make(map[int]int, len(c))
	for id, members := range c {
		sizes[id] = len(members)
	}

	return sizes
}

// Total returns the number of clustered sentences.
func (c Clusters) Total() int {
	total := 0
	for _, members := range c {
		total += len(members)
	}

	return total
}

// ThemeSummary is the language-model summary of one cluster.
type ThemeSummary struct {
	Theme           string `json:"theme"`
	Description     string `json:"description"`
	SampleSentences string `json:"sample_sentences"`
}
