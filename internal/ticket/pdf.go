// Package ticket renders e-ticket receipts. The file name is derived
// from the booking identity only, so the ticket URL can be handed to
// the client before the document exists.
package ticket

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
)

// Ticket is the data rendered onto the receipt.
type Ticket struct {
	BookingID     int64
	TicketRef     string
	UserName      string
	PassengerName string
	PassengerAge  int
	Airline       string
	FlightNumber  string
	DepartureTime time.Time
	ArrivalTime   time.Time
	Duration      int
	BasePrice     int64
	Price         int64
	BookedAt      time.Time
}

// FileName returns the stable name of a booking's ticket document.
func FileName(bookingID int64) string {
	return fmt.Sprintf("ticket-%d.pdf", bookingID)
}

// URLFor returns the path at which the ticket is served.
func URLFor(bookingID int64) string {
	return "/tickets/" + FileName(bookingID)
}

type Generator struct {
	dir string
}

func NewGenerator(dir string) *Generator {
	return &Generator{dir: dir}
}

// Generate writes the PDF receipt and returns its path on disk.
func (g *Generator) Generate(t Ticket) (string, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("create tickets dir: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Flight Ticket - %d", t.BookingID), false)
	pdf.SetAuthor("FBTRIP Airlines", false)
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(30, 58, 138)
	pdf.Cell(0, 10, "FBTRIP AIRLINES")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(102, 102, 102)
	pdf.Cell(0, 5, "291 Airport Road, SkyCity")
	pdf.Ln(5)
	pdf.Cell(0, 5, "+91 999 898 9091 | www.fbtrip-airline-booking.onrender.com")
	pdf.Ln(8)
	pdf.SetDrawColor(30, 58, 138)
	pdf.SetLineWidth(0.5)
	pdf.Line(10, pdf.GetY(), 200, pdf.GetY())
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(30, 58, 138)
	pdf.Cell(120, 8, "ELECTRONIC TICKET RECEIPT")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(0, 8, "Issued: "+t.BookedAt.Format("02 Jan 2006"), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	// Passenger and booking info
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(30, 58, 138)
	pdf.Cell(95, 7, "PASSENGER DETAILS")
	pdf.CellFormat(0, 7, "BOOKING INFORMATION", "", 1, "", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(51, 51, 51)
	pdf.Cell(95, 6, "Name: "+t.PassengerName)
	pdf.CellFormat(0, 6, fmt.Sprintf("Booking ID: %d", t.BookingID), "", 1, "", false, 0, "")
	pdf.Cell(95, 6, fmt.Sprintf("Age: %d", t.PassengerAge))
	pdf.CellFormat(0, 6, "Reference: "+t.TicketRef, "", 1, "", false, 0, "")
	pdf.Cell(95, 6, "Booked by: "+t.UserName)
	pdf.CellFormat(0, 6, "Status: CONFIRMED", "", 1, "", false, 0, "")
	pdf.Ln(6)

	// Flight table
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(30, 58, 138)
	pdf.Cell(0, 7, "FLIGHT DETAILS")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(30, 58, 138)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(35, 7, "Airline", "1", 0, "", true, 0, "")
	pdf.CellFormat(30, 7, "Flight No.", "1", 0, "", true, 0, "")
	pdf.CellFormat(50, 7, "Departure", "1", 0, "", true, 0, "")
	pdf.CellFormat(50, 7, "Arrival", "1", 0, "", true, 0, "")
	pdf.CellFormat(25, 7, "Duration", "1", 1, "", true, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(51, 51, 51)
	pdf.CellFormat(35, 7, t.Airline, "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 7, t.FlightNumber, "1", 0, "", false, 0, "")
	pdf.CellFormat(50, 7, t.DepartureTime.Format("02 Jan 2006 15:04"), "1", 0, "", false, 0, "")
	pdf.CellFormat(50, 7, t.ArrivalTime.Format("02 Jan 2006 15:04"), "1", 0, "", false, 0, "")
	pdf.CellFormat(25, 7, fmt.Sprintf("%d mins", t.Duration), "1", 1, "", false, 0, "")
	pdf.Ln(6)

	// Fare breakdown
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(30, 58, 138)
	pdf.Cell(0, 7, "FARE BREAKDOWN")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(51, 51, 51)
	pdf.Cell(140, 6, "Base Fare")
	pdf.CellFormat(0, 6, fmt.Sprintf("%d.00", t.BasePrice), "", 1, "R", false, 0, "")
	pdf.Cell(140, 6, "Taxes & Fees")
	pdf.CellFormat(0, 6, fmt.Sprintf("%d.00", t.Price-t.BasePrice), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(140, 7, "Total (INR)")
	pdf.CellFormat(0, 7, fmt.Sprintf("%d.00", t.Price), "", 1, "R", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(102, 102, 102)
	pdf.MultiCell(0, 4, "Terms & Conditions: Ticket non-transferable. Changes may incur fees. Valid government ID required. Baggage fees may apply.", "", "", false)
	pdf.MultiCell(0, 4, "Security: Keep this document confidential. Report any discrepancies immediately.", "", "", false)

	path := filepath.Join(g.dir, FileName(t.BookingID))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write ticket pdf: %w", err)
	}
	return path, nil
}
