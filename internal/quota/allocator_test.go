package quota

import (
	"reflect"
	"testing"
)

func TestDistribute(t *testing.T) {
	tests := []struct {
		name      string
		remaining int
		n         int
		perCap    int
		want      []int
	}{
		{
			name:      "even split with remainder to front",
			remaining: 50, n: 20, perCap: 3,
			want: []int{3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2},
		},
		{
			name:      "quota exceeds capped total",
			remaining: 50, n: 5, perCap: 3,
			want: []int{3, 3, 3, 3, 3},
		},
		{
			name:      "not enough for everyone",
			remaining: 10, n: 20, perCap: 3,
			want: []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name:      "no companies",
			remaining: 50, n: 0, perCap: 3,
			want: []int{},
		},
		{
			name:      "no quota",
			remaining: 0, n: 4, perCap: 3,
			want: []int{0, 0, 0, 0},
		},
		{
			name:      "single company capped",
			remaining: 50, n: 1, perCap: 3,
			want: []int{3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distribute(tt.remaining, tt.n, tt.perCap)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Distribute(%d, %d, %d) = %v, want %v", tt.remaining, tt.n, tt.perCap, got, tt.want)
			}
		})
	}
}

func TestDistributeInvariants(t *testing.T) {
	const perCap = 3
	for remaining := 0; remaining <= 80; remaining++ {
		for n := 1; n <= 25; n++ {
			counts := Distribute(remaining, n, perCap)
			if len(counts) != n {
				t.Fatalf("Distribute(%d, %d, %d) length = %d", remaining, n, perCap, len(counts))
			}

			sum := 0
			for _, c := range counts {
				if c < 0 || c > perCap {
					t.Fatalf("Distribute(%d, %d, %d) element %d out of [0, %d]", remaining, n, perCap, c, perCap)
				}
				sum += c
			}

			want := remaining
			if n*perCap < want {
				want = n * perCap
			}
			if sum != want {
				t.Fatalf("Distribute(%d, %d, %d) sum = %d, want %d", remaining, n, perCap, sum, want)
			}

			// Maximally even: counts are non-increasing and differ by at most 1
			// below the cap
			for i := 1; i < len(counts); i++ {
				if counts[i] > counts[i-1] {
					t.Fatalf("Distribute(%d, %d, %d) not front-loaded: %v", remaining, n, perCap, counts)
				}
				if counts[i-1]-counts[i] > 1 {
					t.Fatalf("Distribute(%d, %d, %d) uneven: %v", remaining, n, perCap, counts)
				}
			}
		}
	}
}
