package ocr

import "regexp"

var (
	reThaiScript  = regexp.MustCompile(`[ก-๙]`)
	reInvoiceWord = regexp.MustCompile(`ใบกำกับภาษี|ใบเสร็จ|(?i:invoice|receipt)`)
	reAmountLike  = regexp.MustCompile(`\d{1,3}(,\d{3})*\.\d{2}\b`)
	reTaxIDLike   = regexp.MustCompile(`(\d[\s-]*){12}\d`)
)

// heuristicConfidence scores OCR output by the invoice artifacts it should
// contain. Used when the engine gives no word confidences of its own.
func heuristicConfidence(txt string) float32 {
	score := float32(0.2)
	if reThaiScript.MatchString(txt) {
		score += 0.15
	}
	if reInvoiceWord.MatchString(txt) {
		score += 0.2
	}
	if reAmountLike.MatchString(txt) {
		score += 0.15
	}
	if reTaxIDLike.MatchString(txt) {
		score += 0.1
	}
	if len(txt) > 200 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
