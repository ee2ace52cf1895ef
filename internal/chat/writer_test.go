package chat

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLineWriterNeverInterleaves(t *testing.T) {
	var buf bytes.Buffer
	w := newLineWriter(&buf)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				require.NoError(t, w.writeLines(fmt.Sprintf("g%d-a%d", g, i), fmt.Sprintf("g%d-b%d", g, i)))
			}
		}(g)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), lineTerminator), lineTerminator)
	require.Len(t, lines, 8*100*2)
	for i := 0; i < len(lines); i += 2 {
		var g, n int
		_, err := fmt.Sscanf(lines[i], "g%d-a%d", &g, &n)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("g%d-b%d", g, n), lines[i+1])
	}
}
