package admin

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	ListingsSheet = "Listings"
	UsersSheet    = "Users"
)

var (
	listingHeader = []interface{}{"ID", "Title", "Price", "Status", "Category", "Brand", "Model", "Year", "Mileage", "Location", "Seller", "Seller email", "Featured", "Created at"}
	userHeader    = []interface{}{"User ID", "Profile ID", "Name", "Email", "Phone", "Location", "Seller type", "Admin", "Suspended", "Created at"}
)

// ExportListings writes every listing that matches term and status as an .xlsx workbook.
func (s *Service) ExportListings(ctx context.Context, w io.Writer, term, status string) error {
	rows, err := s.GetAllListings(ctx, term, status)
	if err != nil {
		return err
	}
	data := make([][]interface{}, 0, len(rows))
	for _, l := range rows {
		data = append(data, []interface{}{
			l.ID.String(), l.Title, l.Price, l.Status, l.Category, l.Brand, l.Model,
			l.Year, l.Mileage, l.Location, l.SellerName, l.SellerEmail, l.Featured,
			l.CreatedAt.UTC().Format("2006-01-02 15:04"),
		})
	}
	return writeWorkbook(w, ListingsSheet, listingHeader, data)
}

// ExportUsers writes every profile that matches term and sellerType as an .xlsx workbook.
func (s *Service) ExportUsers(ctx context.Context, w io.Writer, term, sellerType string) error {
	ps, err := s.GetAllUsers(ctx, term, sellerType)
	if err != nil {
		return err
	}
	data := make([][]interface{}, 0, len(ps))
	for _, p := range ps {
		data = append(data, []interface{}{
			p.UserID.String(), p.ID.String(), p.Name, p.Email, p.Phone, p.Location,
			p.SellerType, p.IsAdmin, p.Suspended, p.CreatedAt.UTC().Format("2006-01-02 15:04"),
		})
	}
	return writeWorkbook(w, UsersSheet, userHeader, data)
}

func writeWorkbook(w io.Writer, sheet string, header []interface{}, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return f.Write(w)
}
