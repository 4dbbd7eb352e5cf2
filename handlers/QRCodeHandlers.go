package handlers

import (
	"bytes"
	"database/sql"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"net/http"

	"boxtrack/services"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
)

// addLabel adds text to an image at the specified position
func addLabel(img *image.RGBA, x, y int, label string) {
	col := color.RGBA{0, 0, 0, 255}
	face := inconsolata.Regular8x16

	point := fixed.Point26_6{
		X: fixed.Int26_6(x * 64),
		Y: fixed.Int26_6(y * 64),
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  point,
	}
	d.DrawString(label)
}

// addLabelBold adds bold text for field labels
func addLabelBold(img *image.RGBA, x, y int, label string) {
	col := color.RGBA{30, 30, 30, 255}
	face := inconsolata.Bold8x16

	point := fixed.Point26_6{
		X: fixed.Int26_6(x * 64),
		Y: fixed.Int26_6(y * 64),
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  point,
	}
	d.DrawString(label)
}

func truncateLabel(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// GenerateBoxQRCodeJPEG godoc
// @Summary      Generate a box QR label as JPEG
// @Description  QR of the box's scan payload with tag, serial, floor and status printed below
// @Tags         qr
// @Produce      image/jpeg
// @Param        Authorization header string true "Bearer token"
// @Param        id   path      string  true  "Box ID"
// @Success      200  {file}    file  "JPEG image"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/boxes/{id}/qr [get]
func GenerateBoxQRCodeJPEG(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, _, ok := currentUser(c, db); !ok {
			return
		}
		boxID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		box, err := wf.Boxes.Get(boxID)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		qr, err := qrcode.New(box.QRCodeString, qrcode.Medium)
		if err != nil {
			c.String(http.StatusInternalServerError, "QR code generation failed")
			return
		}

		qrImg := qr.Image(512)

		qrSize := qrImg.Bounds().Dy()
		padding := 30
		lineHeight := 28
		textAreaHeight := 4*lineHeight + padding
		totalHeight := qrSize + padding + textAreaHeight

		combinedImg := image.NewRGBA(image.Rect(0, 0, qrSize, totalHeight))
		draw.Draw(combinedImg, combinedImg.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

		qrRect := image.Rect(0, 0, qrSize, qrSize)
		draw.Draw(combinedImg, qrRect, qrImg, image.Point{}, draw.Src)

		separatorY := qrSize + padding/2
		for x := 0; x < qrSize; x++ {
			combinedImg.Set(x, separatorY, color.RGBA{200, 200, 200, 255})
		}

		startY := qrSize + padding + lineHeight
		xPos := 20

		addLabelBold(combinedImg, xPos, startY, "Box Tag:")
		addLabel(combinedImg, xPos+120, startY, truncateLabel(box.BoxTag, 30))

		addLabelBold(combinedImg, xPos, startY+lineHeight, "Serial:")
		addLabel(combinedImg, xPos+120, startY+lineHeight, truncateLabel(box.SerialNumber, 30))

		addLabelBold(combinedImg, xPos, startY+2*lineHeight, "Floor:")
		addLabel(combinedImg, xPos+120, startY+2*lineHeight, truncateLabel(box.Floor, 25))

		addLabelBold(combinedImg, xPos, startY+3*lineHeight, "Status:")
		addLabel(combinedImg, xPos+120, startY+3*lineHeight, box.Status)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, combinedImg, nil); err != nil {
			c.String(http.StatusInternalServerError, "JPEG encoding failed")
			return
		}

		c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
	}
}
