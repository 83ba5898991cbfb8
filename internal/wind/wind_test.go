package wind

import "testing"

func TestBuildGridWrapsLongitude(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6} // 2 rows x 3 cols
	grid, err := BuildGrid(data, 2, 3)
	if err != nil {
		t.Fatal(err)
	}

	if len(grid) != 2 {
		t.Fatalf("rows = %d, want 2", len(grid))
	}
	for _, row := range grid {
		if len(row) != 4 {
			t.Fatalf("row length = %d, want 4", len(row))
		}
		if row[len(row)-1] != row[0] {
			t.Errorf("row = %v, last element should equal first", row)
		}
	}

	if grid[0][0] != 1 || grid[0][2] != 3 {
		t.Errorf("row 0 = %v, want [1 2 3 1]", grid[0])
	}
	if grid[1][0] != 4 || grid[1][2] != 6 {
		t.Errorf("row 1 = %v, want [4 5 6 4]", grid[1])
	}
}

func TestBuildGridRejectsLengthMismatch(t *testing.T) {
	if _, err := BuildGrid([]float64{1, 2, 3}, 2, 2); err == nil {
		t.Fatal("expected error for length mismatch")
	}
}
