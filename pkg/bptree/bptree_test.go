package bptree_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/wpilogviewer/pkg/bptree"
)

func TestBPlusTree_InsertAndSearch(t *testing.T) {
	tests := map[string]struct {
		tree     *bptree.BPlusTree[uint64, string]
		actions  []func(tree *bptree.BPlusTree[uint64, string])
		searches []struct {
			key      uint64
			expected string
			found    bool
		}
	}{
		"Insert and search timestamps": {
			tree: bptree.NewBPlusTree[uint64, string](4),
			actions: []func(tree *bptree.BPlusTree[uint64, string]){
				func(tree *bptree.BPlusTree[uint64, string]) { tree.Insert(1, "one") },
				func(tree *bptree.BPlusTree[uint64, string]) { tree.Insert(2, "two") },
				func(tree *bptree.BPlusTree[uint64, string]) { tree.Insert(3, "three") },
				func(tree *bptree.BPlusTree[uint64, string]) { tree.Insert(4, "four") },
				func(tree *bptree.BPlusTree[uint64, string]) { tree.Insert(5, "five") },
			},
			searches: []struct {
				key      uint64
				expected string
				found    bool
			}{
				{1, "one", true},
				{2, "two", true},
				{3, "three", true},
				{4, "four", true},
				{5, "five", true},
				{6, "", false},
			},
		},
		"Insert duplicate keys": {
			tree: bptree.NewBPlusTree[uint64, string](4),
			actions: []func(tree *bptree.BPlusTree[uint64, string]){
				func(tree *bptree.BPlusTree[uint64, string]) { tree.Insert(1, "one") },
				func(tree *bptree.BPlusTree[uint64, string]) { tree.Insert(1, "uno") },
			},
			searches: []struct {
				key      uint64
				expected string
				found    bool
			}{
				{1, "uno", true},
			},
		},
		"Search empty tree": {
			tree:    bptree.NewBPlusTree[uint64, string](4),
			actions: []func(tree *bptree.BPlusTree[uint64, string]){},
			searches: []struct {
				key      uint64
				expected string
				found    bool
			}{
				{1, "", false},
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			for _, action := range tt.actions {
				action(tt.tree)
			}
			for _, search := range tt.searches {
				value, found := tt.tree.Search(search.key)
				if found != search.found || value != search.expected {
					t.Errorf("Search(%d) = %v, %v; want %v, %v", search.key, value, found, search.expected, search.found)
				}
			}
		})
	}
}

func TestBPlusTree_Len(t *testing.T) {
	tree := bptree.NewBPlusTree[uint64, int](3)
	for i := uint64(0); i < 50; i++ {
		tree.Insert(i, int(i))
	}
	tree.Insert(10, -1)

	assert.Equal(t, 50, tree.Len())
	assert.Greater(t, tree.Height(), 1)
}

func TestBPlusTree_Floor(t *testing.T) {
	tree := bptree.NewBPlusTree[uint64, string](3)
	// Insert out of order so that leaves split in both directions.
	for _, k := range []uint64{500, 100, 900, 300, 700, 200, 800, 400, 600} {
		tree.Insert(k, "v")
	}

	tests := []struct {
		name  string
		query uint64
		want  uint64
		found bool
	}{
		{"before first key", 99, 0, false},
		{"exact first key", 100, 100, true},
		{"between keys", 250, 200, true},
		{"exact middle key", 500, 500, true},
		{"just below a leaf boundary", 699, 600, true},
		{"after last key", 1 << 63, 900, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			key, _, found := tree.Floor(tc.query)
			assert.Equal(t, tc.found, found)
			if tc.found {
				assert.Equal(t, tc.want, key)
			}
		})
	}
}

func TestBPlusTree_FloorEmpty(t *testing.T) {
	tree := bptree.NewBPlusTree[uint64, string](4)
	_, _, found := tree.Floor(42)
	assert.False(t, found)

	_, _, found = tree.Last()
	assert.False(t, found)
}

func TestBPlusTree_Last(t *testing.T) {
	tree := bptree.NewBPlusTree[uint64, string](3)
	for i := uint64(1); i <= 20; i++ {
		tree.Insert(i*10, "v")
	}

	key, _, found := tree.Last()
	require.True(t, found)
	assert.Equal(t, uint64(200), key)
}

func TestBPlusTree_ScanAndAscend(t *testing.T) {
	tree := bptree.NewBPlusTree[uint64, uint64](3)
	for _, k := range []uint64{5, 3, 9, 1, 7, 2, 8, 4, 6} {
		tree.Insert(k, k*10)
	}

	assert.Equal(t, []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9}, tree.Keys())

	var got []uint64
	tree.Ascend(4, func(k, v uint64) bool {
		assert.Equal(t, k*10, v)
		got = append(got, k)
		return k < 7
	})
	assert.Equal(t, []uint64{4, 5, 6, 7}, got)

	var count int
	tree.Scan(func(uint64, uint64) bool {
		count++
		return count < 3
	})
	assert.Equal(t, 3, count)
}

func TestBPlusTree_ConcurrentReaders(t *testing.T) {
	tree := bptree.NewBPlusTree[uint64, string](4)
	for i := uint64(1); i <= 100; i++ {
		tree.Insert(i, string(rune('a'+i%26)))
	}

	var wg sync.WaitGroup
	for i := uint64(1); i <= 100; i++ {
		wg.Add(1)
		go func(i uint64) {
			defer wg.Done()
			if _, found := tree.Search(i); !found {
				t.Errorf("Expected to find key %d", i)
			}
			if k, _, found := tree.Floor(i); !found || k != i {
				t.Errorf("Floor(%d) = %d, %v", i, k, found)
			}
		}(i)
	}
	wg.Wait()
}
