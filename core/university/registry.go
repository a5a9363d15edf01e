// Package university holds the static registry of supported universities
// and their student email domains.
package university

import "strings"

type University struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain,omitempty"` // student email domain; empty when unknown
}

// OtherID is the catch-all entry for universities without a registered domain.
const OtherID = "other"

var registry = []University{
	{ID: "tokyo", Name: "東京大学", Domain: "g.ecc.u-tokyo.ac.jp"},
	{ID: "kyoto", Name: "京都大学", Domain: "elms.kyoto-u.ac.jp"},
	{ID: "osaka", Name: "大阪大学", Domain: "ecs.osaka-u.ac.jp"},
	{ID: "tohoku", Name: "東北大学", Domain: "dc.tohoku.ac.jp"},
	{ID: "nagoya", Name: "名古屋大学", Domain: "s.thers.ac.jp"},
	{ID: "kyushu", Name: "九州大学", Domain: "s.kyushu-u.ac.jp"},
	{ID: "hokkaido", Name: "北海道大学", Domain: "eis.hokudai.ac.jp"},
	{ID: "keio", Name: "慶應義塾大学", Domain: "keio.jp"},
	{ID: "jikei", Name: "東京慈恵会医科大学", Domain: "jikei.ac.jp"},
	{ID: "nihon-med", Name: "日本医科大学", Domain: "nms.ac.jp"},
	{ID: "showa", Name: "昭和大学", Domain: "showa-u.ac.jp"},
	{ID: "tokai", Name: "東海大学", Domain: "tsc.u-tokai.ac.jp"},
	{ID: "kitasato", Name: "北里大学", Domain: "st.kitasato-u.ac.jp"},
	{ID: "chiba", Name: "千葉大学", Domain: "s.chiba-u.jp"},
	{ID: "tsukuba", Name: "筑波大学", Domain: "s.tsukuba.ac.jp"},
	{ID: "kobe", Name: "神戸大学", Domain: "stu.kobe-u.ac.jp"},
	{ID: "hiroshima", Name: "広島大学", Domain: "hiroshima-u.ac.jp"},
	{ID: "okayama", Name: "岡山大学", Domain: "s.okayama-u.ac.jp"},
	{ID: "niigata", Name: "新潟大学", Domain: "mail.cc.niigata-u.ac.jp"},
	{ID: "kanazawa", Name: "金沢大学", Domain: "stu.kanazawa-u.ac.jp"},
	{ID: "nagasaki", Name: "長崎大学", Domain: "ms.nagasaki-u.ac.jp"},
	{ID: "kumamoto", Name: "熊本大学", Domain: "st.kumamoto-u.ac.jp"},
	{ID: "kagoshima", Name: "鹿児島大学", Domain: "lofty.kagoshima-u.ac.jp"},
	{ID: "ryukyu", Name: "琉球大学", Domain: "eve.u-ryukyu.ac.jp"},
	{ID: "yokohama-city", Name: "横浜市立大学", Domain: "yokohama-cu.ac.jp"},
	{ID: "osaka-metro", Name: "大阪公立大学", Domain: "omu.ac.jp"},
	{ID: "kyoto-pref", Name: "京都府立医科大学", Domain: "koto.kpu-m.ac.jp"},
	{ID: "nara-med", Name: "奈良県立医科大学", Domain: "naramed-u.ac.jp"},
	{ID: "wakayama-med", Name: "和歌山県立医科大学", Domain: "wakayama-med.ac.jp"},
	{ID: "toho", Name: "東邦大学", Domain: "st.toho-u.ac.jp"},
	{ID: "teikyo", Name: "帝京大学", Domain: "stu.teikyo-u.ac.jp"},
	{ID: "tokyo-med", Name: "東京医科大学", Domain: "tokyo-med.ac.jp"},
	{ID: "tokyo-womens", Name: "東京女子医科大学", Domain: "twmu.ac.jp"},
	{ID: "nippon-med", Name: "日本大学", Domain: "nihon-u.ac.jp"},
	{ID: "juntendo", Name: "順天堂大学", Domain: "juntendo.ac.jp"},
	{ID: OtherID, Name: "その他の大学"},
}

var byID = func() map[string]University {
	m := make(map[string]University, len(registry))
	for _, u := range registry {
		m[u.ID] = u
	}
	return m
}()

// All returns the registry in its display order.
func All() []University {
	all := make([]University, len(registry))
	copy(all, registry)
	return all
}

func Get(id string) (University, bool) {
	u, ok := byID[id]
	return u, ok
}

func Exists(id string) bool {
	_, ok := byID[id]
	return ok
}

// ValidateEmailDomain checks that email belongs to the university's student
// domain. Universities without a registered domain accept any academic
// (.ac.jp) address.
func ValidateEmailDomain(email, universityID string) bool {
	email = strings.ToLower(email)
	uni, ok := Get(universityID)
	if !ok || uni.Domain == "" {
		return strings.HasSuffix(email, ".ac.jp")
	}
	return strings.HasSuffix(email, "@"+uni.Domain)
}
