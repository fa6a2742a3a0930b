package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/models"
)

var statusTitles = map[string]string{
	models.StatusPending:   "Ожидает",
	models.StatusConfirmed: "Подтверждена",
	models.StatusCancelled: "Отменена",
	models.StatusCompleted: "Завершена",
}

// WriteAppointments выгружает записи за период в книгу Excel.
func WriteAppointments(w io.Writer, appointments []*models.Appointment, start, end time.Time, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Записи"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	// Заголовок периода
	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Записи: %s - %s",
		start.Format("02.01.2006"), end.Format("02.01.2006")))
	_ = f.MergeCell(sheetName, "A1", "F1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headers := []string{"Дата", "Время", "Клиент", "Телефон", "Услуга", "Статус"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, h)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	row := 3
	for _, a := range appointments {
		local := a.Time.In(loc)
		values := []interface{}{
			local.Format("02.01.2006"),
			a.Slot(),
			a.ClientName,
			a.ClientPhone,
			a.ServiceLabel,
			statusTitle(a.Status),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
		row++
	}

	_ = f.SetColWidth(sheetName, "A", "B", 12)
	_ = f.SetColWidth(sheetName, "C", "E", 28)
	_ = f.SetColWidth(sheetName, "F", "F", 16)

	_ = f.DeleteSheet("Sheet1")

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %v", err)
	}
	return nil
}

func statusTitle(status string) string {
	if title, ok := statusTitles[status]; ok {
		return title
	}
	return status
}
