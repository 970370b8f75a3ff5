package sheet

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var _ Store = (*GoogleStore)(nil)

// GoogleStore talks to the Google Sheets v4 API for one spreadsheet.
type GoogleStore struct {
	spreadsheetID string
	service       *sheets.Service
}

// NewGoogleStore builds a Sheets client. An empty credentialsFile falls back to
// application default credentials.
func NewGoogleStore(ctx context.Context, spreadsheetID, credentialsFile string) (*GoogleStore, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &GoogleStore{spreadsheetID: spreadsheetID, service: service}, nil
}

func (s *GoogleStore) GetValues(ctx context.Context, rng string) ([][]string, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	values := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, cell := range row {
			if str, ok := cell.(string); ok {
				cells[j] = str
			} else if cell != nil {
				cells[j] = fmt.Sprint(cell)
			}
		}
		values[i] = cells
	}
	return values, nil
}

func (s *GoogleStore) GetProperties(ctx context.Context, sheetName string) (Properties, error) {
	resp, err := s.service.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return Properties{}, err
	}
	for _, sh := range resp.Sheets {
		if sh.Properties == nil || sh.Properties.Title != sheetName {
			continue
		}
		props := Properties{Title: sh.Properties.Title}
		if grid := sh.Properties.GridProperties; grid != nil {
			props.RowCount = int(grid.RowCount)
			props.ColumnCount = int(grid.ColumnCount)
		}
		return props, nil
	}
	return Properties{}, fmt.Errorf("%w: %s", ErrSheetNotFound, sheetName)
}

func (s *GoogleStore) Append(ctx context.Context, rng string, rows [][]string) error {
	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, rng, &sheets.ValueRange{Values: toInterfaces(rows)}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func (s *GoogleStore) BatchUpdate(ctx context.Context, updates []CellUpdate) error {
	data := make([]*sheets.ValueRange, 0, len(updates))
	for _, update := range updates {
		data = append(data, &sheets.ValueRange{Range: update.Range, Values: toInterfaces(update.Values)})
	}
	_, err := s.service.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	return err
}

func toInterfaces(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		out[i] = cells
	}
	return out
}
