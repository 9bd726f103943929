package repair

// Rule is a literal substitution applied to whole-file content.
type Rule struct {
	From string
	To   string
}

// RuleSet holds the ordered substitution tables. Order matters: a later rule
// may match text produced by an earlier one.
type RuleSet struct {
	Structure []Rule
	Text      []Rule
}

// Marker is the replacement character left behind by a lossy decode.
const Marker = "�"

// MarkerPair is the marker followed by the '?' a second lossy pass appends.
const MarkerPair = Marker + "?"

// treeBar replaces marker pairs inside fenced code blocks.
const treeBar = "│"

// Corrupted directory-tree lines from a Spring Boot login demo listing.
var structureRules = []Rule{
	{"�?  �?              ├── controller", "│  │              ├── controller"},
	{"�?  ├── java", "│  ├── java"},
	{"�?  �?  └── com", "│  │  └── com"},
	{"�?  �?      └── example", "│  │      └── example"},
	{"�?  �?          └── logindemo", "│  │          └── logindemo"},
	{"�?  �?              �?  └── LoginController.java", "│  │              │  └── LoginController.java"},
	{"�?  �?              └── LoginDemoApplication.java", "│  │              └── LoginDemoApplication.java"},
	{"�?  └── resources", "│  └── resources"},
	{"�?      ├── static", "│      ├── static"},
	{"�?      ├── templates", "│      ├── templates"},
	{"�?      �?  ├── login.html", "│      │  ├── login.html"},
	{"�?      �?  ├── login-success.html", "│      │  ├── login-success.html"},
	{"�?      �?  └── login-failure.html", "│      │  └── login-failure.html"},
	{"�?      └── application.properties", "│      └── application.properties"},
}

// Corrupted prose fragments; the lost character is usually CJK punctuation.
var textRules = []Rule{
	{"开�?", "开发"},
	{"�?/a>", "</a>"},
	{"用户�?", "用户名"},
	{"密码错误，请重试�?", "密码错误，请重试。"},
	{"返回登录�?", "返回登录页"},
	{"文件�?", "文件。"},
	{"运行�?", "运行。"},
	{"访�?", "访问"},
	{"配置项目信息**�?", "配置项目信息**："},
	{"添加依赖**�?", "添加依赖**："},
	{"IDEA�?", "IDEA。"},
	{"Project`�?", "Project`。"},
	{"Initializr`�?", "Initializr`。"},
	{"项目设置�?", "项目设置。"},
	{"�?在本指南中", "在本指南中"},
	{"功能�?", "功能。"},
	{"页面�?", "页面。"},
}

// DefaultRules returns a copy of the built-in tables.
func DefaultRules() RuleSet {
	return RuleSet{
		Structure: append([]Rule(nil), structureRules...),
		Text:      append([]Rule(nil), textRules...),
	}
}

// Extend returns a rule set with extra rules appended after the existing ones.
func (rs RuleSet) Extend(structure, text []Rule) RuleSet {
	out := RuleSet{
		Structure: make([]Rule, 0, len(rs.Structure)+len(structure)),
		Text:      make([]Rule, 0, len(rs.Text)+len(text)),
	}
	out.Structure = append(append(out.Structure, rs.Structure...), structure...)
	out.Text = append(append(out.Text, rs.Text...), text...)
	return out
}
