package riskscan

// trie is a small Aho-Corasick automaton over bytes of normalized text.
// Rule packs hold tens of terms so children live in sparse maps
type trie struct {
	nodes []trieNode
}

type trieNode struct {
	next map[byte]int
	fail int
	out  []int // term ids ending here, including those reached via fail links
}

func newTrie() *trie {
	return &trie{nodes: []trieNode{{next: map[byte]int{}}}}
}

// add inserts term under id
func (t *trie) add(term string, id int) {
	if term == "" {
		return
	}
	cur := 0
	for i := 0; i < len(term); i++ {
		b := term[i]
		nxt, ok := t.nodes[cur].next[b]
		if !ok {
			nxt = len(t.nodes)
			t.nodes = append(t.nodes, trieNode{next: map[byte]int{}})
			t.nodes[cur].next[b] = nxt
		}
		cur = nxt
	}
	t.nodes[cur].out = append(t.nodes[cur].out, id)
}

// build computes failure links breadth first
func (t *trie) build() {
	queue := make([]int, 0, len(t.nodes))
	for _, child := range t.nodes[0].next {
		t.nodes[child].fail = 0
		queue = append(queue, child)
	}
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		for b, s := range t.nodes[r].next {
			queue = append(queue, s)
			f := t.nodes[r].fail
			for {
				if nxt, ok := t.nodes[f].next[b]; ok {
					t.nodes[s].fail = nxt
					break
				}
				if f == 0 {
					t.nodes[s].fail = 0
					break
				}
				f = t.nodes[f].fail
			}
			t.nodes[s].out = append(t.nodes[s].out, t.nodes[t.nodes[s].fail].out...)
		}
	}
}

// each calls fn(end, id) for every occurrence in text, end exclusive
func (t *trie) each(text string, fn func(end, id int)) {
	cur := 0
	for i := 0; i < len(text); i++ {
		b := text[i]
		for {
			if nxt, ok := t.nodes[cur].next[b]; ok {
				cur = nxt
				break
			}
			if cur == 0 {
				break
			}
			cur = t.nodes[cur].fail
		}
		for _, id := range t.nodes[cur].out {
			fn(i+1, id)
		}
	}
}
