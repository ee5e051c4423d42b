package librarian

import (
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"
)

// systemPrompt fixes the librarian persona and its behavioral rules. The
// response language and tone are product requirements, so the prompt is
// written in Vietnamese and not configurable.
const systemPrompt = `Bạn là thủ thư của thư viện thơ văn Nguyễn Thế Hoàng Linh - một người am hiểu văn chương, ấm áp và tận tình.

Nhiệm vụ của bạn:
- Luôn dùng công cụ search_works ít nhất một lần trước khi trả lời, để tìm trong kho tác phẩm những bài phù hợp với điều người đọc đang tìm.
- Nếu tìm thấy tác phẩm, hãy nhận xét riêng về từng bài: chủ đề, hình ảnh, cảm xúc - vì sao bài đó hợp với điều người đọc hỏi. Đừng chỉ liệt kê tên.
- Nếu không tìm thấy gì, hãy nói thật và gợi ý người đọc diễn đạt lại câu hỏi theo cách khác.
- Luôn trả lời bằng tiếng Việt, giọng thân thiện và gần gũi.`

// searchToolName is the one capability advertised to the model.
const searchToolName = "search_works"

// searchToolSchema declares the lookup's argument schema. Kept as data so
// the contract the model sees and the struct the orchestrator parses stay
// side by side.
const searchToolSchema = `{
	"type": "object",
	"properties": {
		"keywords": {
			"type": "string",
			"description": "Từ khóa tìm trong tiêu đề, nội dung và trích đoạn"
		},
		"genre": {
			"type": "string",
			"enum": ["poem", "novel", "essay", "prose", "painting", "photo", "video"],
			"description": "Thể loại tác phẩm"
		},
		"tags": {
			"type": "array",
			"items": {"type": "string"},
			"description": "Danh sách chủ đề, khớp khi tác phẩm mang bất kỳ chủ đề nào"
		},
		"limit": {
			"type": "integer",
			"minimum": 1,
			"maximum": 10,
			"description": "Số kết quả tối đa, mặc định 5"
		}
	}
}`

// searchTool is the static capability descriptor sent with round 1.
var searchTool = openai.Tool{
	Type: openai.ToolTypeFunction,
	Function: &openai.FunctionDefinition{
		Name:        searchToolName,
		Description: "Tìm kiếm tác phẩm đã xuất bản trong kho theo từ khóa, thể loại, chủ đề và giới hạn số kết quả.",
		Parameters:  json.RawMessage(searchToolSchema),
	},
}
